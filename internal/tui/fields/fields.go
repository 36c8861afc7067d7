// Package fields describes the editable fields of each wizard step: their
// schema path, label, input kind and how they read and write the form.
package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/wizard"
)

// Kind selects the editor used for a field.
type Kind int

const (
	KindText Kind = iota
	KindSecret
	KindInt
	KindFloat
	KindDate
	KindChoice
	KindMulti
	KindFlag    // plain bool, such as the condition checkboxes
	KindDerived // shown but never edited
)

// Typed reports whether the field is edited through a text input.
func (k Kind) Typed() bool {
	switch k {
	case KindText, KindSecret, KindInt, KindFloat, KindDate:
		return true
	}
	return false
}

// Option is one selectable token of a choice or multi field.
type Option struct {
	Value string
	Label string
}

// Field is one row of a wizard step.
type Field struct {
	Path    string
	Label   string
	Kind    Kind
	Options []Option

	get     func(f *form.FormState) string
	set     func(f *form.FormState, v string) error
	list    func(f *form.FormState) *[]string
	visible func(f *form.FormState) bool
}

// Visible reports whether the field applies to f.
func (fd Field) Visible(f *form.FormState) bool {
	return fd.visible == nil || fd.visible(f)
}

// Value returns the field's current value as text. Multi fields join their
// tokens with commas.
func (fd Field) Value(f *form.FormState) string {
	if fd.Kind == KindMulti {
		return strings.Join(*fd.list(f), ",")
	}
	return fd.get(f)
}

// Display renders the value for the read-only view, translating tokens to
// their labels.
func (fd Field) Display(f *form.FormState) string {
	switch fd.Kind {
	case KindChoice, KindFlag:
		return fd.label(fd.get(f))
	case KindMulti:
		vals := *fd.list(f)
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = fd.label(v)
		}
		return strings.Join(out, ", ")
	case KindSecret:
		if fd.get(f) == "" {
			return ""
		}
		return "••••••"
	}
	return fd.get(f)
}

func (fd Field) label(v string) string {
	for _, o := range fd.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// Set writes a typed value. Empty input clears optional numbers.
func (fd Field) Set(f *form.FormState, v string) error {
	if fd.set == nil {
		return fmt.Errorf("%s is read-only", fd.Path)
	}
	return fd.set(f, v)
}

// Cycle moves a choice or flag field to the next (dir > 0) or previous
// option, wrapping around.
func (fd Field) Cycle(f *form.FormState, dir int) {
	if (fd.Kind != KindChoice && fd.Kind != KindFlag) || len(fd.Options) == 0 {
		return
	}
	cur := fd.get(f)
	idx := 0
	for i, o := range fd.Options {
		if o.Value == cur {
			idx = i
			break
		}
	}
	n := len(fd.Options)
	idx = ((idx+dir)%n + n) % n
	_ = fd.set(f, fd.Options[idx].Value)
}

// Toggle flips one token of a multi field.
func (fd Field) Toggle(f *form.FormState, token string) {
	if fd.Kind != KindMulti {
		return
	}
	vals := fd.list(f)
	for i, v := range *vals {
		if v == token {
			*vals = append((*vals)[:i:i], (*vals)[i+1:]...)
			return
		}
	}
	// keep the option order stable
	var next []string
	for _, o := range fd.Options {
		if o.Value == token || contains(*vals, o.Value) {
			next = append(next, o.Value)
		}
	}
	*vals = next
}

// Has reports whether a multi field holds token.
func (fd Field) Has(f *form.FormState, token string) bool {
	return fd.Kind == KindMulti && contains(*fd.list(f), token)
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func text(path, label string, ptr func(*form.FormState) *string) Field {
	return Field{
		Path:  path,
		Label: label,
		Kind:  KindText,
		get:   func(f *form.FormState) string { return *ptr(f) },
		set: func(f *form.FormState, v string) error {
			*ptr(f) = v
			return nil
		},
	}
}

func secret(path, label string, ptr func(*form.FormState) *string) Field {
	fd := text(path, label, ptr)
	fd.Kind = KindSecret
	return fd
}

func date(path, label string, ptr func(*form.FormState) *string) Field {
	fd := text(path, label, ptr)
	fd.Kind = KindDate
	fd.set = func(f *form.FormState, v string) error {
		v = strings.TrimSpace(v)
		if t, ok := form.ParseDate(v); ok {
			v = t.Format(form.DateLayout)
		}
		*ptr(f) = v
		return nil
	}
	return fd
}

func integer(path, label string, ptr func(*form.FormState) **int) Field {
	return Field{
		Path:  path,
		Label: label,
		Kind:  KindInt,
		get: func(f *form.FormState) string {
			if p := *ptr(f); p != nil {
				return strconv.Itoa(*p)
			}
			return ""
		},
		set: func(f *form.FormState, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(f) = nil
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %q não é um número inteiro", label, v)
			}
			*ptr(f) = &n
			return nil
		},
	}
}

func decimal(path, label string, ptr func(*form.FormState) **float64) Field {
	return Field{
		Path:  path,
		Label: label,
		Kind:  KindFloat,
		get: func(f *form.FormState) string {
			if p := *ptr(f); p != nil {
				return strconv.FormatFloat(*p, 'f', -1, 64)
			}
			return ""
		},
		set: func(f *form.FormState, v string) error {
			v = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
			if v == "" {
				*ptr(f) = nil
				return nil
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %q não é um número", label, v)
			}
			*ptr(f) = &n
			return nil
		},
	}
}

func choice(path, label string, set []string, ptr func(*form.FormState) *string) Field {
	fd := text(path, label, ptr)
	fd.Kind = KindChoice
	fd.Options = options(set)
	return fd
}

func tri(path, label string, ptr func(*form.FormState) *form.TriState) Field {
	return triOf(path, label, ptr, form.Sim, form.Nao, form.NaoSabe)
}

func yesNo(path, label string, ptr func(*form.FormState) *form.TriState) Field {
	return triOf(path, label, ptr, form.Sim, form.Nao)
}

func triOf(path, label string, ptr func(*form.FormState) *form.TriState, vals ...form.TriState) Field {
	opts := []Option{{Value: "", Label: "-"}}
	for _, v := range vals {
		opts = append(opts, Option{Value: string(v), Label: v.Label()})
	}
	return Field{
		Path:    path,
		Label:   label,
		Kind:    KindChoice,
		Options: opts,
		get:     func(f *form.FormState) string { return string(*ptr(f)) },
		set: func(f *form.FormState, v string) error {
			t, ok := form.ParseTriState(v)
			if !ok {
				return fmt.Errorf("%s: resposta inválida %q", label, v)
			}
			*ptr(f) = t
			return nil
		},
	}
}

func boolPtr(path, label string, ptr func(*form.FormState) **bool) Field {
	return Field{
		Path:    path,
		Label:   label,
		Kind:    KindChoice,
		Options: []Option{{"", "-"}, {"sim", "Sim"}, {"nao", "Não"}},
		get: func(f *form.FormState) string {
			return string(form.SimNaoFromBool(*ptr(f)))
		},
		set: func(f *form.FormState, v string) error {
			t, _ := form.ParseTriState(v)
			*ptr(f) = t.Bool()
			return nil
		},
	}
}

func multi(path, label string, set []string, ptr func(*form.FormState) *[]string) Field {
	return Field{
		Path:    path,
		Label:   label,
		Kind:    KindMulti,
		Options: options(set)[1:],
		list:    ptr,
	}
}

func condition(path, label string, c form.Condition) Field {
	return Field{
		Path:    path,
		Label:   label,
		Kind:    KindFlag,
		Options: []Option{{"nao", "Não"}, {"sim", "Sim"}},
		get: func(f *form.FormState) string {
			flag := f.Condicoes.HAS
			if c == form.CondDM {
				flag = f.Condicoes.DM
			}
			if flag {
				return "sim"
			}
			return "nao"
		},
		set: func(f *form.FormState, v string) error {
			*f = form.SetCondition(*f, c, v == "sim")
			return nil
		},
	}
}

func derived(path, label string, get func(*form.FormState) string) Field {
	return Field{Path: path, Label: label, Kind: KindDerived, get: get}
}

func when(fd Field, pred func(*form.FormState) bool) Field {
	fd.visible = pred
	return fd
}

func options(set []string) []Option {
	out := []Option{{Value: "", Label: "-"}}
	for _, v := range set {
		out = append(out, Option{Value: v, Label: Label(v)})
	}
	return out
}

// ---------------------------------------------------------------------------
// Step catalog
// ---------------------------------------------------------------------------

var catalog = map[wizard.Step][]Field{}

func init() {
	catalog[wizard.StepSocio] = socioFields()
	catalog[wizard.StepCondicoes] = condicoesFields()
	catalog[wizard.StepClinica] = append(hasFields(), dmFields()...)
	catalog[wizard.StepMultiprof] = multiprofFields()
	catalog[wizard.StepPlano] = planoFields()
}

// All returns every field of step, visible or not.
func All(step wizard.Step) []Field {
	return catalog[step]
}

// For returns the fields of step that apply to f, in display order.
func For(step wizard.Step, f *form.FormState) []Field {
	var out []Field
	for _, fd := range catalog[step] {
		if fd.Visible(f) {
			out = append(out, fd)
		}
	}
	return out
}

// Find looks a field up by schema path.
func Find(path string) (Field, bool) {
	for _, step := range wizard.Steps() {
		for _, fd := range catalog[step] {
			if fd.Path == path {
				return fd, true
			}
		}
	}
	return Field{}, false
}

// StepOf returns the step that owns path.
func StepOf(path string) (wizard.Step, bool) {
	for _, step := range wizard.Steps() {
		for _, fd := range catalog[step] {
			if fd.Path == path || strings.HasPrefix(path, fd.Path+".") {
				return step, true
			}
		}
	}
	return 0, false
}

