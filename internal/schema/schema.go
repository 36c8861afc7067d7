// Package schema declares the validation rules of the patient registration
// form. Each field rule is written once and evaluated in two modes: Create
// (required fields enforced) and Edit (every field optional, formats still
// checked on whatever is present).
package schema

import (
	"fmt"
	"maps"
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/rastreiamais/rastreia/internal/form"
)

// Mode selects the strict create schema or the partial edit schema.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// FieldError is a validation failure attached to a dotted field path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Errors is the ordered list of failures of one validation pass.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Path + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for path, if any.
func (e Errors) Get(path string) (string, bool) {
	for _, fe := range e {
		if fe.Path == path {
			return fe.Message, true
		}
	}
	return "", false
}

// First returns the first failure, which is where focus goes.
func (e Errors) First() (FieldError, bool) {
	if len(e) == 0 {
		return FieldError{}, false
	}
	return e[0], true
}

// Map flattens the errors into path -> message.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, dup := m[fe.Path]; !dup {
			m[fe.Path] = fe.Message
		}
	}
	return m
}

var (
	cepRe    = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	nonDigit = regexp.MustCompile(`\D+`)
)

// OnlyDigits strips everything but 0-9.
func OnlyDigits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// Rule table
// ---------------------------------------------------------------------------

// rule describes one field. present reports whether the field holds a value
// (blank strings and nil pointers are absent). required is the message used
// in Create mode when the value is absent; an empty string marks the field
// optional. check validates a present value and returns a message on failure.
type rule struct {
	path     string
	scope    func(*form.FormState) bool
	present  func(*form.FormState) bool
	required string
	check    func(*form.FormState) string
}

func str(get func(*form.FormState) string) func(*form.FormState) bool {
	return func(f *form.FormState) bool { return strings.TrimSpace(get(f)) != "" }
}

func tri(get func(*form.FormState) form.TriState) func(*form.FormState) bool {
	return func(f *form.FormState) bool { return get(f) != form.Unset }
}

func hasBlock(f *form.FormState) bool { return f.Clinica.HAS != nil }
func dmBlock(f *form.FormState) bool  { return f.Clinica.DM != nil }

func enumRule(path string, scope func(*form.FormState) bool, get func(*form.FormState) string, set []string, required string) rule {
	return rule{
		path:     path,
		scope:    scope,
		present:  str(get),
		required: required,
		check: func(f *form.FormState) string {
			if !oneOf(set, get(f)) {
				return "Opção inválida"
			}
			return ""
		},
	}
}

func multiRule(path string, scope func(*form.FormState) bool, get func(*form.FormState) []string, set []string) rule {
	return rule{
		path:    path,
		scope:   scope,
		present: func(f *form.FormState) bool { return len(get(f)) > 0 },
		check: func(f *form.FormState) string {
			if !allOf(set, get(f)) {
				return "Opção inválida"
			}
			return ""
		},
	}
}

// triRule accepts sim/nao/nao_sabe, or only sim/nao when twoState is set.
func triRule(path string, scope func(*form.FormState) bool, get func(*form.FormState) form.TriState, twoState bool, required string) rule {
	return rule{
		path:     path,
		scope:    scope,
		present:  tri(get),
		required: required,
		check: func(f *form.FormState) string {
			v := get(f)
			if !v.Valid() || (twoState && v == form.NaoSabe) {
				return "Opção inválida"
			}
			return ""
		},
	}
}

func posFloat(path string, scope func(*form.FormState) bool, get func(*form.FormState) *float64, msg string) rule {
	return rule{
		path:    path,
		scope:   scope,
		present: func(f *form.FormState) bool { return get(f) != nil },
		check: func(f *form.FormState) string {
			if *get(f) <= 0 {
				return msg
			}
			return ""
		},
	}
}

func posInt(path string, scope func(*form.FormState) bool, get func(*form.FormState) *int, msg string) rule {
	return rule{
		path:    path,
		scope:   scope,
		present: func(f *form.FormState) bool { return get(f) != nil },
		check: func(f *form.FormState) string {
			if *get(f) <= 0 {
				return msg
			}
			return ""
		},
	}
}

func dateRule(path string, scope func(*form.FormState) bool, get func(*form.FormState) string, required string) rule {
	return rule{
		path:     path,
		scope:    scope,
		present:  str(get),
		required: required,
		check: func(f *form.FormState) string {
			if _, ok := form.ParseDate(get(f)); !ok {
				return "Data inválida"
			}
			return ""
		},
	}
}

func minLen(path string, get func(*form.FormState) string, n int, msg string) rule {
	return rule{
		path:     path,
		present:  str(get),
		required: msg,
		check: func(f *form.FormState) string {
			if len([]rune(strings.TrimSpace(get(f)))) < n {
				return msg
			}
			return ""
		},
	}
}

var rules = buildRules()

func buildRules() []rule {
	var r []rule

	// Step 1 -- sociodemographic
	r = append(r,
		minLen("socio.nome", func(f *form.FormState) string { return f.Socio.Nome }, 3, "Informe o nome completo"),
		dateRule("socio.nascimento", nil, func(f *form.FormState) string { return f.Socio.Nascimento }, "Informe a data de nascimento"),
		enumRule("socio.genero", nil, func(f *form.FormState) string { return f.Socio.Genero }, Generos, "Informe o gênero"),
		rule{
			path:     "socio.sus_cpf",
			present:  str(func(f *form.FormState) string { return f.Socio.SusCPF }),
			required: "CPF inválido",
			check: func(f *form.FormState) string {
				if len(OnlyDigits(f.Socio.SusCPF)) != 11 {
					return "CPF inválido"
				}
				return ""
			},
		},
		rule{
			path:    "socio.telefone",
			present: str(func(f *form.FormState) string { return f.Socio.Telefone }),
			check: func(f *form.FormState) string {
				if n := len(OnlyDigits(f.Socio.Telefone)); n < 10 || n > 11 {
					return "Informe telefone válido"
				}
				return ""
			},
		},
		rule{
			path:    "socio.email",
			present: str(func(f *form.FormState) string { return f.Socio.Email }),
			check: func(f *form.FormState) string {
				if _, err := mail.ParseAddress(strings.TrimSpace(f.Socio.Email)); err != nil {
					return "E-mail inválido"
				}
				return ""
			},
		},
		minLen("socio.endereco.logradouro", func(f *form.FormState) string { return f.Socio.Endereco.Logradouro }, 3, "Informe endereço"),
		minLen("socio.endereco.bairro", func(f *form.FormState) string { return f.Socio.Endereco.Bairro }, 2, "Informe bairro"),
		minLen("socio.endereco.cidade", func(f *form.FormState) string { return f.Socio.Endereco.Cidade }, 2, "Informe cidade"),
		enumRule("socio.endereco.uf", nil, func(f *form.FormState) string { return strings.ToUpper(f.Socio.Endereco.UF) }, UFs, "Informe a UF"),
		rule{
			path:    "socio.endereco.cep",
			present: str(func(f *form.FormState) string { return f.Socio.Endereco.CEP }),
			check: func(f *form.FormState) string {
				if !cepRe.MatchString(strings.TrimSpace(f.Socio.Endereco.CEP)) {
					return "CEP inválido"
				}
				return ""
			},
		},
		rule{
			path:    "socio.n_pessoas_domicilio",
			present: func(f *form.FormState) bool { return f.Socio.NPessoasDomicilio != nil },
			check: func(f *form.FormState) string {
				if *f.Socio.NPessoasDomicilio < 0 {
					return "Valor inválido"
				}
				return ""
			},
		},
		rule{
			path:    "socio.renda_familiar",
			present: func(f *form.FormState) bool { return f.Socio.RendaFamiliar != nil },
			check: func(f *form.FormState) string {
				if *f.Socio.RendaFamiliar < 0 {
					return "Valor inválido"
				}
				return ""
			},
		},
		enumRule("socio.escolaridade", nil, func(f *form.FormState) string { return f.Socio.Escolaridade }, Escolaridade, "Informe a escolaridade"),
		enumRule("socio.estado_civil", nil, func(f *form.FormState) string { return f.Socio.EstadoCivil }, EstadosCivis, "Informe o estado civil"),
	)

	// Step 2 -- conditions
	r = append(r,
		enumRule("condicoes.outras_em_acompanhamento", nil, func(f *form.FormState) string { return f.Condicoes.OutrasEmAcompanhamento }, SimNaoNSA, ""),
	)

	// Step 3 -- HAS block
	h := func(f *form.FormState) *form.ClinicaHAS { return f.Clinica.HAS }
	r = append(r,
		triRule("clinica.has.diag_has", hasBlock, func(f *form.FormState) form.TriState { return h(f).DiagHAS }, false, "Informe o diagnóstico"),
		enumRule("clinica.has.usa_medicacao", hasBlock, func(f *form.FormState) string { return h(f).UsaMedicacao }, UsaMedicacao, "Informe o uso de medicação"),
		triRule("clinica.has.historico_familiar", hasBlock, func(f *form.FormState) form.TriState { return h(f).HistoricoFamiliar }, false, "Informe o histórico familiar"),
		multiRule("clinica.has.complicacoes", hasBlock, func(f *form.FormState) []string { return h(f).Complicacoes }, Complicacoes),
		posInt("clinica.has.pa1_sis", hasBlock, func(f *form.FormState) *int { return h(f).PA1Sis }, "Sistólica inválida"),
		posInt("clinica.has.pa1_dia", hasBlock, func(f *form.FormState) *int { return h(f).PA1Dia }, "Diastólica inválida"),
		posInt("clinica.has.pa2_sis", hasBlock, func(f *form.FormState) *int { return h(f).PA2Sis }, "Sistólica inválida"),
		posInt("clinica.has.pa2_dia", hasBlock, func(f *form.FormState) *int { return h(f).PA2Dia }, "Diastólica inválida"),
		posFloat("clinica.has.peso", hasBlock, func(f *form.FormState) *float64 { return h(f).Peso }, "Peso inválido"),
		posFloat("clinica.has.altura", hasBlock, func(f *form.FormState) *float64 { return h(f).Altura }, "Altura inválida"),
		posFloat("clinica.has.imc", hasBlock, func(f *form.FormState) *float64 { return h(f).IMC }, "IMC inválido"),
		posFloat("clinica.has.circ_abdominal", hasBlock, func(f *form.FormState) *float64 { return h(f).CircAbdominal }, "Valor inválido"),
		enumRule("clinica.has.estilo_alimentacao", hasBlock, func(f *form.FormState) string { return h(f).EstiloAlimentacao }, EstiloAlimentacao, ""),
		enumRule("clinica.has.sal", hasBlock, func(f *form.FormState) string { return h(f).Sal }, Sal, ""),
		enumRule("clinica.has.alcool", hasBlock, func(f *form.FormState) string { return h(f).Alcool }, Alcool, ""),
		enumRule("clinica.has.tabagismo", hasBlock, func(f *form.FormState) string { return h(f).Tabagismo }, Tabagismo, ""),
		posFloat("clinica.has.col_total", hasBlock, func(f *form.FormState) *float64 { return h(f).ColTotal }, "Valor inválido"),
		dateRule("clinica.has.col_total_data", hasBlock, func(f *form.FormState) string { return h(f).ColTotalData }, ""),
		posFloat("clinica.has.hdl", hasBlock, func(f *form.FormState) *float64 { return h(f).HDL }, "Valor inválido"),
		dateRule("clinica.has.hdl_data", hasBlock, func(f *form.FormState) string { return h(f).HDLData }, ""),
		enumRule("clinica.has.ultima_consulta_has", hasBlock, func(f *form.FormState) string { return h(f).UltimaConsultaHAS }, UltimaConsulta, ""),
		enumRule("clinica.has.classificacao_pa", hasBlock, func(f *form.FormState) string { return h(f).ClassificacaoPA }, ClassificacaoPA, ""),
		enumRule("clinica.has.framingham", hasBlock, func(f *form.FormState) string { return h(f).Framingham }, Framingham, ""),
		multiRule("clinica.has.condutas", hasBlock, func(f *form.FormState) []string { return h(f).Condutas }, CondutasHAS),
	)

	// Step 3 -- DM block
	d := func(f *form.FormState) *form.ClinicaDM { return f.Clinica.DM }
	r = append(r,
		triRule("clinica.dm.diag_dm", dmBlock, func(f *form.FormState) form.TriState { return d(f).DiagDM }, false, "Informe o diagnóstico"),
		enumRule("clinica.dm.usa_medicacao", dmBlock, func(f *form.FormState) string { return d(f).UsaMedicacao }, UsaMedicacao, "Informe o uso de medicação"),
		multiRule("clinica.dm.tipo_tratamento", dmBlock, func(f *form.FormState) []string { return d(f).TipoTratamento }, TipoTratamento),
		triRule("clinica.dm.historico_familiar", dmBlock, func(f *form.FormState) form.TriState { return d(f).HistoricoFamiliar }, false, "Informe o histórico familiar"),
		multiRule("clinica.dm.comorbidades", dmBlock, func(f *form.FormState) []string { return d(f).Comorbidades }, Comorbidades),
		triRule("clinica.dm.pe_diabetico", dmBlock, func(f *form.FormState) form.TriState { return d(f).PeDiabetico }, true, ""),
		posFloat("clinica.dm.glicemia_aleatoria", dmBlock, func(f *form.FormState) *float64 { return d(f).GlicemiaAleatoria }, "Valor inválido"),
		posFloat("clinica.dm.glicemia_jejum", dmBlock, func(f *form.FormState) *float64 { return d(f).GlicemiaJejum }, "Valor inválido"),
		dateRule("clinica.dm.glicemia_jejum_data", dmBlock, func(f *form.FormState) string { return d(f).GlicemiaJejumData }, ""),
		posFloat("clinica.dm.hba1c", dmBlock, func(f *form.FormState) *float64 { return d(f).HbA1c }, "Valor inválido"),
		dateRule("clinica.dm.hba1c_data", dmBlock, func(f *form.FormState) string { return d(f).HbA1cData }, ""),
		enumRule("clinica.dm.estilo_alimentacao", dmBlock, func(f *form.FormState) string { return d(f).EstiloAlimentacao }, EstiloAlimentacao, ""),
		enumRule("clinica.dm.sal", dmBlock, func(f *form.FormState) string { return d(f).Sal }, Sal, ""),
		enumRule("clinica.dm.alcool", dmBlock, func(f *form.FormState) string { return d(f).Alcool }, Alcool, ""),
		enumRule("clinica.dm.tabagismo", dmBlock, func(f *form.FormState) string { return d(f).Tabagismo }, Tabagismo, ""),
		posFloat("clinica.dm.peso", dmBlock, func(f *form.FormState) *float64 { return d(f).Peso }, "Peso inválido"),
		posFloat("clinica.dm.altura", dmBlock, func(f *form.FormState) *float64 { return d(f).Altura }, "Altura inválida"),
		posFloat("clinica.dm.imc", dmBlock, func(f *form.FormState) *float64 { return d(f).IMC }, "IMC inválido"),
		posFloat("clinica.dm.circ_abdominal", dmBlock, func(f *form.FormState) *float64 { return d(f).CircAbdominal }, "Valor inválido"),
		enumRule("clinica.dm.ultima_consulta_dm", dmBlock, func(f *form.FormState) string { return d(f).UltimaConsultaDM }, UltimaConsulta, ""),
		enumRule("clinica.dm.triagem_dm", dmBlock, func(f *form.FormState) string { return d(f).TriagemDM }, TriagemDM, ""),
		triRule("clinica.dm.risco_idade_45", dmBlock, func(f *form.FormState) form.TriState { return d(f).RiscoIdade45 }, true, ""),
		triRule("clinica.dm.risco_imc_25", dmBlock, func(f *form.FormState) form.TriState { return d(f).RiscoIMC25 }, true, ""),
		triRule("clinica.dm.risco_sedentarismo", dmBlock, func(f *form.FormState) form.TriState { return d(f).RiscoSedentarismo }, true, ""),
		triRule("clinica.dm.risco_pa_elevada", dmBlock, func(f *form.FormState) form.TriState { return d(f).RiscoPAElevada }, true, ""),
		triRule("clinica.dm.risco_lipidios_alterados", dmBlock, func(f *form.FormState) form.TriState { return d(f).RiscoLipidiosAlterados }, true, ""),
		enumRule("clinica.dm.risco_dm_gestacional", dmBlock, func(f *form.FormState) string { return d(f).RiscoDMGestacional }, SimNaoNSA, ""),
		enumRule("clinica.dm.risco_sop", dmBlock, func(f *form.FormState) string { return d(f).RiscoSOP }, SimNaoNSA, ""),
		multiRule("clinica.dm.condutas", dmBlock, func(f *form.FormState) []string { return d(f).Condutas }, CondutasDM),
	)

	// Step 4 -- multiprofessional screening, all optional
	m := func(f *form.FormState) *form.Multiprof { return &f.Multiprof }
	twoState := map[string]func(*form.FormState) form.TriState{
		"psico_uso_psicofarmaco":       func(f *form.FormState) form.TriState { return m(f).PsicoUsoPsicofarmaco },
		"psico_estresse_interfere":     func(f *form.FormState) form.TriState { return m(f).PsicoEstresseInterfere },
		"psico_fatores_economicos":     func(f *form.FormState) form.TriState { return m(f).PsicoFatoresEconomicos },
		"psico_cumpre_orientacoes":     func(f *form.FormState) form.TriState { return m(f).PsicoCumpreOrientacoes },
		"ambi_feridas_demoram":         func(f *form.FormState) form.TriState { return m(f).AmbiFeridasDemoram },
		"fisico_atividade":             func(f *form.FormState) form.TriState { return m(f).FisicoAtividade },
		"fisico_edemas":                func(f *form.FormState) form.TriState { return m(f).FisicoEdemas },
		"fisico_dispneia":              func(f *form.FormState) form.TriState { return m(f).FisicoDispneia },
		"fisico_formigamento_caimbras": func(f *form.FormState) form.TriState { return m(f).FisicoFormigamentoCaimbras },
		"fisico_dificuldade_caminhar":  func(f *form.FormState) form.TriState { return m(f).FisicoDificuldadeCaminhar },
		"precisa_enc_multiprof":        func(f *form.FormState) form.TriState { return m(f).PrecisaEncMultiprof },
	}
	threeState := map[string]func(*form.FormState) form.TriState{
		"psico_diagnostico":               func(f *form.FormState) form.TriState { return m(f).PsicoDiagnostico },
		"psico_apoio_suficiente":          func(f *form.FormState) form.TriState { return m(f).PsicoApoioSuficiente },
		"ambi_animais_domicilio":          func(f *form.FormState) form.TriState { return m(f).AmbiAnimaisDomicilio },
		"ambi_animais_vacinados":          func(f *form.FormState) form.TriState { return m(f).AmbiAnimaisVacinados },
		"ambi_contato_sangue_fezes_urina": func(f *form.FormState) form.TriState { return m(f).AmbiContatoSangueFezesUrina },
		"ambi_orientacao_zoonoses":        func(f *form.FormState) form.TriState { return m(f).AmbiOrientacaoZoonoses },
	}
	for _, name := range slices.Sorted(maps.Keys(twoState)) {
		r = append(r, triRule("multiprof."+name, nil, twoState[name], true, ""))
	}
	for _, name := range slices.Sorted(maps.Keys(threeState)) {
		r = append(r, triRule("multiprof."+name, nil, threeState[name], false, ""))
	}
	r = append(r,
		multiRule("multiprof.ambi_doencas_transmissiveis", nil, func(f *form.FormState) []string { return m(f).AmbiDoencasTransmissiveis }, DoencasTransmissiveis),
		multiRule("multiprof.enc_multiprof", nil, func(f *form.FormState) []string { return m(f).EncMultiprof }, EncMultiprof),
		rule{
			path:    "multiprof.fisico_atividade_freq_semana",
			present: func(f *form.FormState) bool { return m(f).FisicoAtividadeFreqSemana != nil },
			check: func(f *form.FormState) string {
				if v := *m(f).FisicoAtividadeFreqSemana; v < 0 || v > 7 {
					return "Valor inválido"
				}
				return ""
			},
		},
	)

	// Step 5 -- plan
	r = append(r,
		enumRule("plano.tipo_consulta", nil, func(f *form.FormState) string { return f.Plano.TipoConsulta }, TiposConsulta, ""),
		dateRule("plano.data_consulta", nil, func(f *form.FormState) string { return f.Plano.DataConsulta }, ""),
		dateRule("plano.data_retorno", nil, func(f *form.FormState) string { return f.Plano.DataRetorno }, ""),
	)

	return r
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate runs every rule in the given mode and returns the failures in
// declaration order. A nil result means the form is valid.
func Validate(f form.FormState, mode Mode) Errors {
	var errs Errors
	for _, r := range rules {
		if r.scope != nil && !r.scope(&f) {
			continue
		}
		if !r.present(&f) {
			if mode == Create && r.required != "" {
				errs = append(errs, FieldError{Path: r.path, Message: r.required})
			}
			continue
		}
		if msg := r.check(&f); msg != "" {
			errs = append(errs, FieldError{Path: r.path, Message: msg})
		}
	}
	if mode == Create {
		errs = append(errs, refine(&f)...)
	}
	return errs
}

// refine holds the cross-field rules of the create schema.
func refine(f *form.FormState) Errors {
	var errs Errors
	if f.Socio.Genero == "O" && strings.TrimSpace(f.Socio.GeneroOutro) == "" {
		errs = append(errs, FieldError{Path: "socio.genero_outro", Message: "Descreva o gênero"})
	}
	if !f.Condicoes.HAS && !f.Condicoes.DM && strings.TrimSpace(f.Condicoes.OutrasDCNTs) == "" {
		errs = append(errs, FieldError{Path: "condicoes.has", Message: "Selecione HAS/DM ou informe outras DCNTs."})
	}
	for _, cr := range form.ConditionRules {
		if *cr.Flag(f) && !cr.Present(f) {
			errs = append(errs, FieldError{
				Path:    fmt.Sprintf("clinica.%s", cr.Condition),
				Message: fmt.Sprintf("Preencha os dados de %s.", strings.ToUpper(string(cr.Condition))),
			})
		}
	}
	return errs
}

// ValidatePaths validates the form and keeps only failures under the given
// paths. A failure matches a path when it is equal to it or nested below it.
func ValidatePaths(f form.FormState, mode Mode, paths []string) Errors {
	if len(paths) == 0 {
		return nil
	}
	var out Errors
	for _, fe := range Validate(f, mode) {
		if Matches(fe.Path, paths) {
			out = append(out, fe)
		}
	}
	return out
}

// Matches reports whether path equals one of targets or sits below it.
func Matches(path string, targets []string) bool {
	for _, t := range targets {
		if path == t || strings.HasPrefix(path, t+".") {
			return true
		}
	}
	return false
}
