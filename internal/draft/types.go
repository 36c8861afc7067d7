// Package draft persists in-progress patient registrations per user.
package draft

import (
	"errors"
	"regexp"
	"time"

	"github.com/rastreiamais/rastreia/internal/form"
)

// KeyPrefix scopes drafts to a user: rastreia:paciente:draft:<uid>.
const KeyPrefix = "rastreia:paciente:draft:"

// ErrNoDraft is returned by Load when the user has no saved draft.
var ErrNoDraft = errors.New("no draft")

// Key returns the storage key for uid.
func Key(uid string) string {
	if uid == "" {
		uid = "anon"
	}
	return KeyPrefix + uid
}

// Draft is a saved snapshot of the registration wizard.
type Draft struct {
	UID     string         `json:"uid"`
	SavedAt time.Time      `json:"saved_at"`
	Step    int            `json:"step"`
	Form    form.FormState `json:"form"`
}

// Title is a short human label for listings.
func (d Draft) Title() string {
	if n := form.ShortName(d.Form.Socio.Nome); n != "" {
		return n
	}
	if d.Form.Socio.SusCPF != "" {
		return d.Form.Socio.SusCPF
	}
	return "(sem nome)"
}

// EventType classifies a draft change seen by the Watcher.
type EventType int

const (
	EventSaved EventType = iota
	EventRemoved
)

func (t EventType) String() string {
	if t == EventRemoved {
		return "removed"
	}
	return "saved"
}

// Event is one coalesced change to a draft file.
type Event struct {
	UID   string
	Type  EventType
	Draft *Draft
	Time  time.Time
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.@-]`)

// fileName maps a uid to a portable file name; ':' is not allowed on every
// filesystem.
func fileName(uid string) string {
	if uid == "" {
		uid = "anon"
	}
	return "paciente-draft-" + unsafeName.ReplaceAllString(uid, "_") + ".json"
}
