package styles

// CompactLogo is the one-line wordmark used in headers.
const CompactLogo = "✚ Rastreia+"

// Logo is the banner shown by the version and login screens.
const Logo = `
 ___          _            _
| _ \__ _ ___| |_ _ _ ___ (_)__ _  _
|   / _' (_-<|  _| '_/ -_)| / _' |_| |_
|_|_\__,_/__/ \__|_| \___||_\__,_|_   _|
                                   |_|`
