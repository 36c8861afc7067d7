package api

import "github.com/rastreiamais/rastreia/internal/mapper"

// Role is a backend account role as returned by /api/auth/me.
type Role string

const (
	RoleManager      Role = "MANAGER"
	RoleProfessional Role = "PROFESSIONAL"
	RolePatient      Role = "PATIENT"
)

// MeUser is the account part of /api/auth/me.
type MeUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Me is the /api/auth/me response.
type Me struct {
	User  MeUser `json:"user"`
	Roles []Role `json:"roles"`
}

// Professional is a /api/v1/accounts/professionals/ record. Role is the
// occupation (Odontologista, Enfermeiro, ACS), not the access role.
type Professional struct {
	ID   int            `json:"id"`
	User mapper.UserRef `json:"user"`
	Role string         `json:"role"`
}

// Institution is a health unit.
type Institution struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	MapsLocalization *string `json:"maps_localization"`
	Address          *int    `json:"address"`
}

// ResetValidation is the password reset token check response.
type ResetValidation struct {
	Valid    bool   `json:"valid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}
