package form

import "strings"

// TriState is a yes/no/unknown answer. Two-valued questions reuse the type
// and simply never hold NaoSabe.
type TriState string

const (
	Unset   TriState = ""
	Sim     TriState = "sim"
	Nao     TriState = "nao"
	NaoSabe TriState = "nao_sabe"
)

// ParseTriState accepts the canonical tokens plus a few common spellings.
// Anything else yields Unset and false.
func ParseTriState(s string) (TriState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unset, true
	case "sim", "s", "yes", "y":
		return Sim, true
	case "nao", "não", "n", "no":
		return Nao, true
	case "nao_sabe", "ns", "?":
		return NaoSabe, true
	}
	return Unset, false
}

// Valid reports whether t is one of the canonical values (Unset included).
func (t TriState) Valid() bool {
	switch t {
	case Unset, Sim, Nao, NaoSabe:
		return true
	}
	return false
}

// Bool converts to the API representation. Unknown and unset map to nil,
// never to false.
func (t TriState) Bool() *bool {
	switch t {
	case Sim:
		v := true
		return &v
	case Nao:
		v := false
		return &v
	}
	return nil
}

// TriFromBool is the inverse of Bool; a nil pointer becomes NaoSabe.
func TriFromBool(b *bool) TriState {
	if b == nil {
		return NaoSabe
	}
	if *b {
		return Sim
	}
	return Nao
}

// SimNaoFromBool maps a nil pointer to Unset instead of NaoSabe, for
// two-valued questions.
func SimNaoFromBool(b *bool) TriState {
	if b == nil {
		return Unset
	}
	if *b {
		return Sim
	}
	return Nao
}

// Label returns the Portuguese display label.
func (t TriState) Label() string {
	switch t {
	case Sim:
		return "Sim"
	case Nao:
		return "Não"
	case NaoSabe:
		return "Não sabe"
	}
	return "-"
}
