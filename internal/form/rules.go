package form

// Condition identifies one of the tracked chronic conditions.
type Condition string

const (
	CondHAS Condition = "has"
	CondDM  Condition = "dm"
)

// ConditionRule ties a condition flag to the clinical block it requires.
type ConditionRule struct {
	Condition Condition
	Flag      func(*FormState) *bool
	Present   func(*FormState) bool
	Ensure    func(*FormState)
	Clear     func(*FormState)
}

// ConditionRules is the single authoritative table linking each flag in
// condicoes to its block in clinica.
var ConditionRules = []ConditionRule{
	{
		Condition: CondHAS,
		Flag:      func(f *FormState) *bool { return &f.Condicoes.HAS },
		Present:   func(f *FormState) bool { return f.Clinica.HAS != nil },
		Ensure: func(f *FormState) {
			if f.Clinica.HAS == nil {
				f.Clinica.HAS = &ClinicaHAS{}
			}
		},
		Clear: func(f *FormState) { f.Clinica.HAS = nil },
	},
	{
		Condition: CondDM,
		Flag:      func(f *FormState) *bool { return &f.Condicoes.DM },
		Present:   func(f *FormState) bool { return f.Clinica.DM != nil },
		Ensure: func(f *FormState) {
			if f.Clinica.DM == nil {
				f.Clinica.DM = &ClinicaDM{}
			}
		},
		Clear: func(f *FormState) { f.Clinica.DM = nil },
	},
}

// Rule returns the rule for c.
func Rule(c Condition) (ConditionRule, bool) {
	for _, r := range ConditionRules {
		if r.Condition == c {
			return r, true
		}
	}
	return ConditionRule{}, false
}

// SetCondition is the only transition that toggles a condition flag. Turning
// a flag on guarantees the clinical block exists; turning it off discards the
// block.
func SetCondition(f FormState, c Condition, on bool) FormState {
	r, ok := Rule(c)
	if !ok {
		return f
	}
	*r.Flag(&f) = on
	if on {
		r.Ensure(&f)
	} else {
		r.Clear(&f)
	}
	return f
}

// Reconcile enforces the rule table on a form that was built elsewhere (a
// draft or an edit-mode hydration). Set flags get their block; a block with
// an unset flag is kept only when keepOrphans is true, which is how edit mode
// preserves clinical data recorded before the box was checked.
func Reconcile(f FormState, keepOrphans bool) FormState {
	for _, r := range ConditionRules {
		if *r.Flag(&f) {
			r.Ensure(&f)
			continue
		}
		if !keepOrphans {
			r.Clear(&f)
		}
	}
	return f
}

// ClinicalEnabled reports whether the clinical step applies at all.
func (f FormState) ClinicalEnabled() bool {
	return f.Condicoes.HAS || f.Condicoes.DM
}
