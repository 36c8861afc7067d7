package form

// ---------------------------------------------------------------------------
// FormState -- the nested patient registration record
// ---------------------------------------------------------------------------

// FormState is the in-progress patient registration. JSON keys follow the
// field names used by drafts so that a saved draft survives upgrades.
type FormState struct {
	Socio     Socio     `json:"socio"`
	Condicoes Condicoes `json:"condicoes"`
	Clinica   Clinica   `json:"clinica"`
	Multiprof Multiprof `json:"multiprof"`
	Plano     Plano     `json:"plano"`
}

// Socio holds identity, contact, address and household data.
type Socio struct {
	Nome                string   `json:"nome"`
	Nascimento          string   `json:"nascimento,omitempty"` // YYYY-MM-DD
	Genero              string   `json:"genero,omitempty"`     // M, F or O
	GeneroOutro         string   `json:"genero_outro,omitempty"`
	RacaEtnia           string   `json:"raca_etnia,omitempty"`
	SusCPF              string   `json:"sus_cpf"`
	ACSResponsavel      string   `json:"acs_responsavel,omitempty"`
	Telefone            string   `json:"telefone,omitempty"`
	Whatsapp            *bool    `json:"whatsapp,omitempty"`
	Email               string   `json:"email,omitempty"`
	Password            string   `json:"password,omitempty"`
	Endereco            Endereco `json:"endereco"`
	NPessoasDomicilio   *int     `json:"n_pessoas_domicilio,omitempty"`
	ResponsavelFamiliar string   `json:"responsavel_familiar,omitempty"`
	RendaFamiliar       *float64 `json:"renda_familiar,omitempty"`
	BolsaFamilia        *bool    `json:"bolsa_familia,omitempty"`
	Escolaridade        string   `json:"escolaridade,omitempty"`
	Ocupacao            string   `json:"ocupacao,omitempty"`
	EstadoCivil         string   `json:"estado_civil,omitempty"`
	MicroAreaID         *int     `json:"micro_area_id,omitempty"`
	AddressID           *int     `json:"address_id,omitempty"`
}

// Endereco is the single free-text address block of the form.
type Endereco struct {
	Logradouro string `json:"logradouro,omitempty"` // "street, number"
	Bairro     string `json:"bairro,omitempty"`
	Cidade     string `json:"cidade,omitempty"`
	UF         string `json:"uf,omitempty"`
	CEP        string `json:"cep,omitempty"`
}

// IsEmpty reports whether every address field is blank.
func (e Endereco) IsEmpty() bool {
	return blank(e.Logradouro) && blank(e.Bairro) && blank(e.Cidade) && blank(e.UF) && blank(e.CEP)
}

// Condicoes holds the chronic condition flags.
type Condicoes struct {
	HAS                    bool   `json:"has"`
	DM                     bool   `json:"dm"`
	OutrasDCNTs            string `json:"outras_dcnts,omitempty"`
	OutrasEmAcompanhamento string `json:"outras_em_acompanhamento,omitempty"`
}

// Clinica holds the optional clinical sub-records. A nil block means the
// condition is not being recorded.
type Clinica struct {
	HAS *ClinicaHAS `json:"has,omitempty"`
	DM  *ClinicaDM  `json:"dm,omitempty"`
}

// Lifestyle tokens shared by the HAS and DM blocks.
type Lifestyle struct {
	EstiloAlimentacao string `json:"estilo_alimentacao,omitempty"`
	Sal               string `json:"sal,omitempty"`
	Alcool            string `json:"alcool,omitempty"`
	Tabagismo         string `json:"tabagismo,omitempty"`
}

// Measures are the anthropometric fields shared by both blocks.
type Measures struct {
	Peso          *float64 `json:"peso,omitempty"`
	Altura        *float64 `json:"altura,omitempty"`
	IMC           *float64 `json:"imc,omitempty"`
	CircAbdominal *float64 `json:"circ_abdominal,omitempty"`
}

// ClinicaHAS is the hypertension clinical block.
type ClinicaHAS struct {
	DiagHAS           TriState `json:"diag_has,omitempty"`
	UsaMedicacao      string   `json:"usa_medicacao,omitempty"`
	Medicamentos      string   `json:"medicamentos,omitempty"`
	HistoricoFamiliar TriState `json:"historico_familiar,omitempty"`
	Complicacoes      []string `json:"complicacoes,omitempty"`
	ComplicacaoOutra  string   `json:"complicacao_outra,omitempty"`

	PA1Sis *int `json:"pa1_sis,omitempty"`
	PA1Dia *int `json:"pa1_dia,omitempty"`
	PA2Sis *int `json:"pa2_sis,omitempty"`
	PA2Dia *int `json:"pa2_dia,omitempty"`

	Measures
	Lifestyle

	ColTotal     *float64 `json:"col_total,omitempty"`
	ColTotalData string   `json:"col_total_data,omitempty"`
	HDL          *float64 `json:"hdl,omitempty"`
	HDLData      string   `json:"hdl_data,omitempty"`

	UltimaConsultaHAS string   `json:"ultima_consulta_has,omitempty"`
	ClassificacaoPA   string   `json:"classificacao_pa,omitempty"`
	Framingham        string   `json:"framingham,omitempty"`
	Condutas          []string `json:"condutas,omitempty"`
	CondutaOutro      string   `json:"conduta_outro,omitempty"`
}

// HasData reports whether any clinical sub-field of the block was filled in.
// Lifestyle tokens alone do not count since they belong to the patient record.
func (h *ClinicaHAS) HasData() bool {
	if h == nil {
		return false
	}
	return h.DiagHAS != Unset ||
		h.UsaMedicacao != "" ||
		h.HistoricoFamiliar != Unset ||
		h.PA1Sis != nil || h.PA1Dia != nil ||
		h.PA2Sis != nil || h.PA2Dia != nil ||
		h.Peso != nil || h.Altura != nil || h.IMC != nil || h.CircAbdominal != nil ||
		h.ColTotal != nil || h.ColTotalData != "" ||
		h.HDL != nil || h.HDLData != "" ||
		h.ClassificacaoPA != "" || h.Framingham != "" ||
		len(h.Condutas) > 0 || len(h.Complicacoes) > 0
}

// ClinicaDM is the diabetes clinical block.
type ClinicaDM struct {
	DiagDM            TriState `json:"diag_dm,omitempty"`
	UsaMedicacao      string   `json:"usa_medicacao,omitempty"`
	TipoTratamento    []string `json:"tipo_tratamento,omitempty"`
	Medicamentos      string   `json:"medicamentos,omitempty"`
	HistoricoFamiliar TriState `json:"historico_familiar,omitempty"`
	Comorbidades      []string `json:"comorbidades,omitempty"`
	PeDiabetico       TriState `json:"pe_diabetico,omitempty"`
	PeDiabeticoMembro string   `json:"pe_diabetico_membro,omitempty"`

	GlicemiaAleatoria *float64 `json:"glicemia_aleatoria,omitempty"`
	GlicemiaJejum     *float64 `json:"glicemia_jejum,omitempty"`
	GlicemiaJejumData string   `json:"glicemia_jejum_data,omitempty"`
	HbA1c             *float64 `json:"hba1c,omitempty"`
	HbA1cData         string   `json:"hba1c_data,omitempty"`

	Lifestyle
	Measures

	UltimaConsultaDM string `json:"ultima_consulta_dm,omitempty"`
	TriagemDM        string `json:"triagem_dm,omitempty"`

	RiscoIdade45           TriState `json:"risco_idade_45,omitempty"`
	RiscoIMC25             TriState `json:"risco_imc_25,omitempty"`
	RiscoSedentarismo      TriState `json:"risco_sedentarismo,omitempty"`
	RiscoPAElevada         TriState `json:"risco_pa_elevada,omitempty"`
	RiscoLipidiosAlterados TriState `json:"risco_lipidios_alterados,omitempty"`
	RiscoDMGestacional     string   `json:"risco_dm_gestacional,omitempty"` // sim, nao, nao_se_aplica
	RiscoSOP               string   `json:"risco_sop,omitempty"`

	Condutas     []string `json:"condutas,omitempty"`
	CondutaOutro string   `json:"conduta_outro,omitempty"`
}

// HasData reports whether any clinical sub-field of the block was filled in.
func (d *ClinicaDM) HasData() bool {
	if d == nil {
		return false
	}
	return d.DiagDM != Unset ||
		d.UsaMedicacao != "" ||
		d.HistoricoFamiliar != Unset ||
		len(d.TipoTratamento) > 0 || len(d.Comorbidades) > 0 ||
		d.PeDiabetico != Unset ||
		d.GlicemiaAleatoria != nil || d.GlicemiaJejum != nil || d.HbA1c != nil ||
		d.Peso != nil || d.Altura != nil || d.IMC != nil || d.CircAbdominal != nil ||
		d.TriagemDM != "" ||
		d.RiscoIdade45 != Unset || d.RiscoIMC25 != Unset ||
		d.RiscoSedentarismo != Unset || d.RiscoPAElevada != Unset ||
		d.RiscoLipidiosAlterados != Unset ||
		d.RiscoDMGestacional != "" || d.RiscoSOP != "" ||
		len(d.Condutas) > 0
}

// Multiprof holds the multiprofessional risk screening answers.
type Multiprof struct {
	PsicoUsoPsicofarmaco   TriState `json:"psico_uso_psicofarmaco,omitempty"`
	PsicoPsicofarmacoQual  string   `json:"psico_psicofarmaco_qual,omitempty"`
	PsicoDiagnostico       TriState `json:"psico_diagnostico,omitempty"`
	PsicoDiagnosticoQual   string   `json:"psico_diagnostico_qual,omitempty"`
	PsicoEstresseInterfere TriState `json:"psico_estresse_interfere,omitempty"`
	PsicoFatoresEconomicos TriState `json:"psico_fatores_economicos,omitempty"`
	PsicoApoioSuficiente   TriState `json:"psico_apoio_suficiente,omitempty"`
	PsicoCumpreOrientacoes TriState `json:"psico_cumpre_orientacoes,omitempty"`

	AmbiAnimaisDomicilio        TriState `json:"ambi_animais_domicilio,omitempty"`
	AmbiAnimaisQuais            string   `json:"ambi_animais_quais,omitempty"`
	AmbiAnimaisVacinados        TriState `json:"ambi_animais_vacinados,omitempty"`
	AmbiFeridasDemoram          TriState `json:"ambi_feridas_demoram,omitempty"`
	AmbiDoencasTransmissiveis   []string `json:"ambi_doencas_transmissiveis,omitempty"`
	AmbiDoencasOutro            string   `json:"ambi_doencas_outro,omitempty"`
	AmbiContatoSangueFezesUrina TriState `json:"ambi_contato_sangue_fezes_urina,omitempty"`
	AmbiOrientacaoZoonoses      TriState `json:"ambi_orientacao_zoonoses,omitempty"`

	FisicoAtividade            TriState `json:"fisico_atividade,omitempty"`
	FisicoAtividadeFreqSemana  *int     `json:"fisico_atividade_freq_semana,omitempty"`
	FisicoEdemas               TriState `json:"fisico_edemas,omitempty"`
	FisicoDispneia             TriState `json:"fisico_dispneia,omitempty"`
	FisicoFormigamentoCaimbras TriState `json:"fisico_formigamento_caimbras,omitempty"`
	FisicoDificuldadeCaminhar  TriState `json:"fisico_dificuldade_caminhar,omitempty"`

	PrecisaEncMultiprof TriState `json:"precisa_enc_multiprof,omitempty"`
	EncMultiprof        []string `json:"enc_multiprof,omitempty"`
	EncMultiprofOutro   string   `json:"enc_multiprof_outro,omitempty"`
}

// Plano holds the care plan summary and scheduling dates.
type Plano struct {
	Resumo       string `json:"resumo,omitempty"`
	TipoConsulta string `json:"tipo_consulta,omitempty"`
	DataConsulta string `json:"data_consulta,omitempty"` // YYYY-MM-DD
	DataRetorno  string `json:"data_retorno,omitempty"`
	Assinatura   string `json:"assinatura,omitempty"`
}

// New returns an empty create-mode form.
func New() FormState {
	return FormState{}
}
