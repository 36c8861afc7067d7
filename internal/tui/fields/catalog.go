package fields

import (
	"strconv"
	"strings"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
)

var labels = map[string]string{
	"sim":           "Sim",
	"nao":           "Não",
	"nao_sabe":      "Não sabe",
	"nao_se_aplica": "Não se aplica",
	"irregular":     "Irregular",

	"M": "Masculino",
	"F": "Feminino",
	"O": "Outro",

	"solteiro":      "Solteiro(a)",
	"casado":        "Casado(a)",
	"uniao_estavel": "União estável",
	"viuvo":         "Viúvo(a)",
	"separado":      "Separado(a)",

	"sem_escolaridade": "Sem escolaridade",
	"fund_incompleto":  "Fundamental incompleto",
	"fund_completo":    "Fundamental completo",
	"medio_incompleto": "Médio incompleto",
	"medio_completo":   "Médio completo",
	"sup_incompleto":   "Superior incompleto",
	"sup_completo":     "Superior completo",

	"avc":     "AVC",
	"infarto": "Infarto",
	"renal":   "Doença renal",
	"outra":   "Outra",
	"outro":   "Outro",

	"saudavel":       "Saudável",
	"parcial":        "Parcialmente saudável",
	"pouco":          "Pouco saudável",
	"adequado":       "Adequado",
	"exagerado":      "Exagerado",
	"nao_bebe":       "Não bebe",
	"socialmente":    "Socialmente",
	"frequentemente": "Frequentemente",
	"nunca":          "Nunca fumou",
	"ex":             "Ex-fumante",
	"atual":          "Fumante",

	"7d": "7 dias", "15d": "15 dias", "30d": "30 dias", "60d": "60 dias",
	"90d": "90 dias", "6m": "6 meses", "1a": "1 ano", ">1a": "Mais de 1 ano",

	"normal":         "Normal",
	"pre_hipertenso": "Pré-hipertenso",
	"estagio1":       "Estágio 1",
	"estagio2":       "Estágio 2",
	"estagio3":       "Estágio 3",
	"<10":            "Baixo (<10%)",
	"10-20":          "Intermediário (10-20%)",
	">20":            "Alto (>20%)",

	"aps":            "Acompanhamento na APS",
	"encaminhamento": "Encaminhamento",
	"grupo":          "Grupo de educação",

	"medicamentoso":          "Medicamentoso",
	"insulina":               "Insulina",
	"alimentar":              "Alimentar",
	"cardiaca":               "Cardíaca",
	"visual":                 "Visual",
	"vascular":               "Vascular",
	"glicemia_alterada":      "Glicemia alterada",
	"suspeita_dm":            "Suspeita de DM",
	"diagnostico_confirmado": "Diagnóstico confirmado",
	"confirmacao_lab":        "Confirmação laboratorial",
	"inicio_trat":            "Início de tratamento",
	"orientacao":             "Orientação",
	"encaminhamento_med":     "Encaminhamento médico",

	"psicologo":         "Psicólogo",
	"medico_vet":        "Médico veterinário",
	"fisioterapeuta":    "Fisioterapeuta",
	"assistente_social": "Assistente social",
	"enfermeira":        "Enfermeira",
	"nutricionista":     "Nutricionista",
	"cirurgia_dentista": "Cirurgião-dentista",

	"consulta":  "Consulta",
	"retorno":   "Retorno",
	"avaliacao": "Avaliação",
}

// Label returns the Portuguese label of a form token. Unknown tokens are
// humanized.
func Label(token string) string {
	if l, ok := labels[token]; ok {
		return l
	}
	s := strings.ReplaceAll(token, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func hasBlock(f *form.FormState) bool { return f.Clinica.HAS != nil }
func dmBlock(f *form.FormState) bool  { return f.Clinica.DM != nil }

func socioFields() []Field {
	return []Field{
		text("socio.nome", "Nome completo", func(f *form.FormState) *string { return &f.Socio.Nome }),
		text("socio.sus_cpf", "Cartão SUS ou CPF", func(f *form.FormState) *string { return &f.Socio.SusCPF }),
		date("socio.nascimento", "Data de nascimento", func(f *form.FormState) *string { return &f.Socio.Nascimento }),
		choice("socio.genero", "Gênero", schema.Generos, func(f *form.FormState) *string { return &f.Socio.Genero }),
		when(text("socio.genero_outro", "Descreva o gênero", func(f *form.FormState) *string { return &f.Socio.GeneroOutro }),
			func(f *form.FormState) bool { return f.Socio.Genero == "O" }),
		text("socio.raca_etnia", "Raça/etnia", func(f *form.FormState) *string { return &f.Socio.RacaEtnia }),
		text("socio.acs_responsavel", "ACS responsável", func(f *form.FormState) *string { return &f.Socio.ACSResponsavel }),
		text("socio.telefone", "Telefone", func(f *form.FormState) *string { return &f.Socio.Telefone }),
		boolPtr("socio.whatsapp", "WhatsApp", func(f *form.FormState) **bool { return &f.Socio.Whatsapp }),
		text("socio.email", "E-mail", func(f *form.FormState) *string { return &f.Socio.Email }),
		secret("socio.password", "Senha de acesso", func(f *form.FormState) *string { return &f.Socio.Password }),
		text("socio.endereco.logradouro", "Logradouro, número", func(f *form.FormState) *string { return &f.Socio.Endereco.Logradouro }),
		text("socio.endereco.bairro", "Bairro", func(f *form.FormState) *string { return &f.Socio.Endereco.Bairro }),
		text("socio.endereco.cidade", "Cidade", func(f *form.FormState) *string { return &f.Socio.Endereco.Cidade }),
		choice("socio.endereco.uf", "UF", schema.UFs, func(f *form.FormState) *string { return &f.Socio.Endereco.UF }),
		text("socio.endereco.cep", "CEP", func(f *form.FormState) *string { return &f.Socio.Endereco.CEP }),
		integer("socio.n_pessoas_domicilio", "Pessoas no domicílio", func(f *form.FormState) **int { return &f.Socio.NPessoasDomicilio }),
		text("socio.responsavel_familiar", "Responsável familiar", func(f *form.FormState) *string { return &f.Socio.ResponsavelFamiliar }),
		decimal("socio.renda_familiar", "Renda familiar (R$)", func(f *form.FormState) **float64 { return &f.Socio.RendaFamiliar }),
		boolPtr("socio.bolsa_familia", "Bolsa Família", func(f *form.FormState) **bool { return &f.Socio.BolsaFamilia }),
		choice("socio.escolaridade", "Escolaridade", schema.Escolaridade, func(f *form.FormState) *string { return &f.Socio.Escolaridade }),
		text("socio.ocupacao", "Ocupação", func(f *form.FormState) *string { return &f.Socio.Ocupacao }),
		choice("socio.estado_civil", "Estado civil", schema.EstadosCivis, func(f *form.FormState) *string { return &f.Socio.EstadoCivil }),
		integer("socio.micro_area_id", "Microárea", func(f *form.FormState) **int { return &f.Socio.MicroAreaID }),
	}
}

func condicoesFields() []Field {
	return []Field{
		condition("condicoes.has", "Hipertensão (HAS)", form.CondHAS),
		condition("condicoes.dm", "Diabetes (DM)", form.CondDM),
		text("condicoes.outras_dcnts", "Outras DCNTs", func(f *form.FormState) *string { return &f.Condicoes.OutrasDCNTs }),
		choice("condicoes.outras_em_acompanhamento", "Outras em acompanhamento", schema.SimNaoNSA,
			func(f *form.FormState) *string { return &f.Condicoes.OutrasEmAcompanhamento }),
	}
}

func hasFields() []Field {
	h := func(f *form.FormState) *form.ClinicaHAS { return f.Clinica.HAS }
	fs := []Field{
		tri("clinica.has.diag_has", "HAS: diagnóstico", func(f *form.FormState) *form.TriState { return &h(f).DiagHAS }),
		choice("clinica.has.usa_medicacao", "HAS: usa medicação", schema.UsaMedicacao, func(f *form.FormState) *string { return &h(f).UsaMedicacao }),
		text("clinica.has.medicamentos", "HAS: medicamentos", func(f *form.FormState) *string { return &h(f).Medicamentos }),
		tri("clinica.has.historico_familiar", "HAS: histórico familiar", func(f *form.FormState) *form.TriState { return &h(f).HistoricoFamiliar }),
		multi("clinica.has.complicacoes", "HAS: complicações", schema.Complicacoes, func(f *form.FormState) *[]string { return &h(f).Complicacoes }),
		when(text("clinica.has.complicacao_outra", "HAS: outra complicação", func(f *form.FormState) *string { return &h(f).ComplicacaoOutra }),
			func(f *form.FormState) bool { return hasBlock(f) && contains(f.Clinica.HAS.Complicacoes, "outra") }),
		integer("clinica.has.pa1_sis", "PA 1 sistólica", func(f *form.FormState) **int { return &h(f).PA1Sis }),
		integer("clinica.has.pa1_dia", "PA 1 diastólica", func(f *form.FormState) **int { return &h(f).PA1Dia }),
		integer("clinica.has.pa2_sis", "PA 2 sistólica", func(f *form.FormState) **int { return &h(f).PA2Sis }),
		integer("clinica.has.pa2_dia", "PA 2 diastólica", func(f *form.FormState) **int { return &h(f).PA2Dia }),
		decimal("clinica.has.peso", "HAS: peso (kg)", func(f *form.FormState) **float64 { return &h(f).Peso }),
		decimal("clinica.has.altura", "HAS: altura (m ou cm)", func(f *form.FormState) **float64 { return &h(f).Altura }),
		derived("clinica.has.imc", "HAS: IMC", func(f *form.FormState) string { return imc(h(f).Measures) }),
		decimal("clinica.has.circ_abdominal", "HAS: circ. abdominal (cm)", func(f *form.FormState) **float64 { return &h(f).CircAbdominal }),
		choice("clinica.has.estilo_alimentacao", "HAS: alimentação", schema.EstiloAlimentacao, func(f *form.FormState) *string { return &h(f).EstiloAlimentacao }),
		choice("clinica.has.sal", "HAS: consumo de sal", schema.Sal, func(f *form.FormState) *string { return &h(f).Sal }),
		choice("clinica.has.alcool", "HAS: álcool", schema.Alcool, func(f *form.FormState) *string { return &h(f).Alcool }),
		choice("clinica.has.tabagismo", "HAS: tabagismo", schema.Tabagismo, func(f *form.FormState) *string { return &h(f).Tabagismo }),
		decimal("clinica.has.col_total", "Colesterol total", func(f *form.FormState) **float64 { return &h(f).ColTotal }),
		date("clinica.has.col_total_data", "Data do colesterol", func(f *form.FormState) *string { return &h(f).ColTotalData }),
		decimal("clinica.has.hdl", "HDL", func(f *form.FormState) **float64 { return &h(f).HDL }),
		date("clinica.has.hdl_data", "Data do HDL", func(f *form.FormState) *string { return &h(f).HDLData }),
		choice("clinica.has.ultima_consulta_has", "HAS: última consulta", schema.UltimaConsulta, func(f *form.FormState) *string { return &h(f).UltimaConsultaHAS }),
		choice("clinica.has.classificacao_pa", "Classificação da PA", schema.ClassificacaoPA, func(f *form.FormState) *string { return &h(f).ClassificacaoPA }),
		choice("clinica.has.framingham", "Escore de Framingham", schema.Framingham, func(f *form.FormState) *string { return &h(f).Framingham }),
		multi("clinica.has.condutas", "HAS: condutas", schema.CondutasHAS, func(f *form.FormState) *[]string { return &h(f).Condutas }),
		when(text("clinica.has.conduta_outro", "HAS: outra conduta", func(f *form.FormState) *string { return &h(f).CondutaOutro }),
			func(f *form.FormState) bool { return hasBlock(f) && contains(f.Clinica.HAS.Condutas, "outro") }),
	}
	return gate(fs, hasBlock)
}

func dmFields() []Field {
	d := func(f *form.FormState) *form.ClinicaDM { return f.Clinica.DM }
	fs := []Field{
		tri("clinica.dm.diag_dm", "DM: diagnóstico", func(f *form.FormState) *form.TriState { return &d(f).DiagDM }),
		choice("clinica.dm.usa_medicacao", "DM: usa medicação", schema.UsaMedicacao, func(f *form.FormState) *string { return &d(f).UsaMedicacao }),
		multi("clinica.dm.tipo_tratamento", "DM: tratamento", schema.TipoTratamento, func(f *form.FormState) *[]string { return &d(f).TipoTratamento }),
		text("clinica.dm.medicamentos", "DM: medicamentos", func(f *form.FormState) *string { return &d(f).Medicamentos }),
		tri("clinica.dm.historico_familiar", "DM: histórico familiar", func(f *form.FormState) *form.TriState { return &d(f).HistoricoFamiliar }),
		multi("clinica.dm.comorbidades", "DM: comorbidades", schema.Comorbidades, func(f *form.FormState) *[]string { return &d(f).Comorbidades }),
		yesNo("clinica.dm.pe_diabetico", "Pé diabético", func(f *form.FormState) *form.TriState { return &d(f).PeDiabetico }),
		when(text("clinica.dm.pe_diabetico_membro", "Membro afetado", func(f *form.FormState) *string { return &d(f).PeDiabeticoMembro }),
			func(f *form.FormState) bool { return dmBlock(f) && f.Clinica.DM.PeDiabetico == form.Sim }),
		decimal("clinica.dm.glicemia_aleatoria", "Glicemia aleatória", func(f *form.FormState) **float64 { return &d(f).GlicemiaAleatoria }),
		decimal("clinica.dm.glicemia_jejum", "Glicemia de jejum", func(f *form.FormState) **float64 { return &d(f).GlicemiaJejum }),
		date("clinica.dm.glicemia_jejum_data", "Data da glicemia", func(f *form.FormState) *string { return &d(f).GlicemiaJejumData }),
		decimal("clinica.dm.hba1c", "HbA1c (%)", func(f *form.FormState) **float64 { return &d(f).HbA1c }),
		date("clinica.dm.hba1c_data", "Data da HbA1c", func(f *form.FormState) *string { return &d(f).HbA1cData }),
		decimal("clinica.dm.peso", "DM: peso (kg)", func(f *form.FormState) **float64 { return &d(f).Peso }),
		decimal("clinica.dm.altura", "DM: altura (m ou cm)", func(f *form.FormState) **float64 { return &d(f).Altura }),
		derived("clinica.dm.imc", "DM: IMC", func(f *form.FormState) string { return imc(d(f).Measures) }),
		decimal("clinica.dm.circ_abdominal", "DM: circ. abdominal (cm)", func(f *form.FormState) **float64 { return &d(f).CircAbdominal }),
		choice("clinica.dm.estilo_alimentacao", "DM: alimentação", schema.EstiloAlimentacao, func(f *form.FormState) *string { return &d(f).EstiloAlimentacao }),
		choice("clinica.dm.sal", "DM: consumo de sal", schema.Sal, func(f *form.FormState) *string { return &d(f).Sal }),
		choice("clinica.dm.alcool", "DM: álcool", schema.Alcool, func(f *form.FormState) *string { return &d(f).Alcool }),
		choice("clinica.dm.tabagismo", "DM: tabagismo", schema.Tabagismo, func(f *form.FormState) *string { return &d(f).Tabagismo }),
		choice("clinica.dm.ultima_consulta_dm", "DM: última consulta", schema.UltimaConsulta, func(f *form.FormState) *string { return &d(f).UltimaConsultaDM }),
		choice("clinica.dm.triagem_dm", "Triagem de DM", schema.TriagemDM, func(f *form.FormState) *string { return &d(f).TriagemDM }),
		tri("clinica.dm.risco_idade_45", "Risco: idade ≥ 45", func(f *form.FormState) *form.TriState { return &d(f).RiscoIdade45 }),
		tri("clinica.dm.risco_imc_25", "Risco: IMC ≥ 25", func(f *form.FormState) *form.TriState { return &d(f).RiscoIMC25 }),
		tri("clinica.dm.risco_sedentarismo", "Risco: sedentarismo", func(f *form.FormState) *form.TriState { return &d(f).RiscoSedentarismo }),
		tri("clinica.dm.risco_pa_elevada", "Risco: PA elevada", func(f *form.FormState) *form.TriState { return &d(f).RiscoPAElevada }),
		tri("clinica.dm.risco_lipidios_alterados", "Risco: lipídios alterados", func(f *form.FormState) *form.TriState { return &d(f).RiscoLipidiosAlterados }),
		choice("clinica.dm.risco_dm_gestacional", "Risco: DM gestacional", schema.SimNaoNSA, func(f *form.FormState) *string { return &d(f).RiscoDMGestacional }),
		choice("clinica.dm.risco_sop", "Risco: SOP", schema.SimNaoNSA, func(f *form.FormState) *string { return &d(f).RiscoSOP }),
		multi("clinica.dm.condutas", "DM: condutas", schema.CondutasDM, func(f *form.FormState) *[]string { return &d(f).Condutas }),
		when(text("clinica.dm.conduta_outro", "DM: outra conduta", func(f *form.FormState) *string { return &d(f).CondutaOutro }),
			func(f *form.FormState) bool { return dmBlock(f) && contains(f.Clinica.DM.Condutas, "outro") }),
	}
	return gate(fs, dmBlock)
}

func multiprofFields() []Field {
	m := func(f *form.FormState) *form.Multiprof { return &f.Multiprof }
	return []Field{
		tri("multiprof.psico_uso_psicofarmaco", "Usa psicofármaco", func(f *form.FormState) *form.TriState { return &m(f).PsicoUsoPsicofarmaco }),
		when(text("multiprof.psico_psicofarmaco_qual", "Qual psicofármaco", func(f *form.FormState) *string { return &m(f).PsicoPsicofarmacoQual }),
			func(f *form.FormState) bool { return f.Multiprof.PsicoUsoPsicofarmaco == form.Sim }),
		tri("multiprof.psico_diagnostico", "Diagnóstico psicológico", func(f *form.FormState) *form.TriState { return &m(f).PsicoDiagnostico }),
		when(text("multiprof.psico_diagnostico_qual", "Qual diagnóstico", func(f *form.FormState) *string { return &m(f).PsicoDiagnosticoQual }),
			func(f *form.FormState) bool { return f.Multiprof.PsicoDiagnostico == form.Sim }),
		tri("multiprof.psico_estresse_interfere", "Estresse interfere no controle", func(f *form.FormState) *form.TriState { return &m(f).PsicoEstresseInterfere }),
		tri("multiprof.psico_fatores_economicos", "Fatores econômicos interferem", func(f *form.FormState) *form.TriState { return &m(f).PsicoFatoresEconomicos }),
		tri("multiprof.psico_apoio_suficiente", "Recebe apoio suficiente", func(f *form.FormState) *form.TriState { return &m(f).PsicoApoioSuficiente }),
		tri("multiprof.psico_cumpre_orientacoes", "Cumpre orientações", func(f *form.FormState) *form.TriState { return &m(f).PsicoCumpreOrientacoes }),
		tri("multiprof.ambi_animais_domicilio", "Animais no domicílio", func(f *form.FormState) *form.TriState { return &m(f).AmbiAnimaisDomicilio }),
		when(text("multiprof.ambi_animais_quais", "Quais animais", func(f *form.FormState) *string { return &m(f).AmbiAnimaisQuais }),
			func(f *form.FormState) bool { return f.Multiprof.AmbiAnimaisDomicilio == form.Sim }),
		tri("multiprof.ambi_animais_vacinados", "Animais vacinados", func(f *form.FormState) *form.TriState { return &m(f).AmbiAnimaisVacinados }),
		tri("multiprof.ambi_feridas_demoram", "Feridas demoram a cicatrizar", func(f *form.FormState) *form.TriState { return &m(f).AmbiFeridasDemoram }),
		multi("multiprof.ambi_doencas_transmissiveis", "Doenças transmissíveis", schema.DoencasTransmissiveis,
			func(f *form.FormState) *[]string { return &m(f).AmbiDoencasTransmissiveis }),
		text("multiprof.ambi_doencas_outro", "Outra doença", func(f *form.FormState) *string { return &m(f).AmbiDoencasOutro }),
		tri("multiprof.ambi_contato_sangue_fezes_urina", "Contato com fluidos animais", func(f *form.FormState) *form.TriState { return &m(f).AmbiContatoSangueFezesUrina }),
		tri("multiprof.ambi_orientacao_zoonoses", "Orientação sobre zoonoses", func(f *form.FormState) *form.TriState { return &m(f).AmbiOrientacaoZoonoses }),
		tri("multiprof.fisico_atividade", "Pratica atividade física", func(f *form.FormState) *form.TriState { return &m(f).FisicoAtividade }),
		when(integer("multiprof.fisico_atividade_freq_semana", "Vezes por semana", func(f *form.FormState) **int { return &m(f).FisicoAtividadeFreqSemana }),
			func(f *form.FormState) bool { return f.Multiprof.FisicoAtividade == form.Sim }),
		tri("multiprof.fisico_edemas", "Edemas", func(f *form.FormState) *form.TriState { return &m(f).FisicoEdemas }),
		tri("multiprof.fisico_dispneia", "Dispneia", func(f *form.FormState) *form.TriState { return &m(f).FisicoDispneia }),
		tri("multiprof.fisico_formigamento_caimbras", "Formigamento ou cãibras", func(f *form.FormState) *form.TriState { return &m(f).FisicoFormigamentoCaimbras }),
		tri("multiprof.fisico_dificuldade_caminhar", "Dificuldade para caminhar", func(f *form.FormState) *form.TriState { return &m(f).FisicoDificuldadeCaminhar }),
		tri("multiprof.precisa_enc_multiprof", "Precisa de encaminhamento", func(f *form.FormState) *form.TriState { return &m(f).PrecisaEncMultiprof }),
		when(multi("multiprof.enc_multiprof", "Encaminhar para", schema.EncMultiprof, func(f *form.FormState) *[]string { return &m(f).EncMultiprof }),
			func(f *form.FormState) bool { return f.Multiprof.PrecisaEncMultiprof == form.Sim }),
		when(text("multiprof.enc_multiprof_outro", "Outro profissional", func(f *form.FormState) *string { return &m(f).EncMultiprofOutro }),
			func(f *form.FormState) bool { return contains(f.Multiprof.EncMultiprof, "outro") }),
	}
}

func planoFields() []Field {
	return []Field{
		text("plano.resumo", "Resumo do plano", func(f *form.FormState) *string { return &f.Plano.Resumo }),
		choice("plano.tipo_consulta", "Tipo de consulta", schema.TiposConsulta, func(f *form.FormState) *string { return &f.Plano.TipoConsulta }),
		date("plano.data_consulta", "Data da consulta", func(f *form.FormState) *string { return &f.Plano.DataConsulta }),
		date("plano.data_retorno", "Data de retorno", func(f *form.FormState) *string { return &f.Plano.DataRetorno }),
		text("plano.assinatura", "Assinatura", func(f *form.FormState) *string { return &f.Plano.Assinatura }),
	}
}

// gate hides every field of a clinical block while the block is absent,
// keeping any narrower predicate the field already had.
func gate(fs []Field, block func(*form.FormState) bool) []Field {
	for i := range fs {
		inner := fs[i].visible
		fs[i].visible = func(f *form.FormState) bool {
			return block(f) && (inner == nil || inner(f))
		}
	}
	return fs
}

func imc(m form.Measures) string {
	v := form.DeriveIMC(m.Peso, m.Altura)
	if v == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(*v, 'f', 2, 64), "0"), ".")
}
