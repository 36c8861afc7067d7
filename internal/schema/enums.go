package schema

// Token sets accepted by the form. The mapper owns the translation to backend
// tokens; these sets only gate what the form may hold.

// UFs lists the 27 Brazilian federative units.
var UFs = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

var (
	Generos      = []string{"M", "F", "O"}
	EstadosCivis = []string{"solteiro", "casado", "uniao_estavel", "viuvo", "separado"}
	Escolaridade = []string{
		"fund_incompleto", "fund_completo",
		"medio_incompleto", "medio_completo",
		"sup_incompleto", "sup_completo",
		"sem_escolaridade",
	}

	SimNaoNSA    = []string{"sim", "nao", "nao_se_aplica"}
	UsaMedicacao = []string{"sim", "nao", "irregular", "nao_se_aplica"}

	Complicacoes      = []string{"avc", "infarto", "renal", "outra"}
	EstiloAlimentacao = []string{"saudavel", "parcial", "pouco"}
	Sal               = []string{"adequado", "exagerado", "nao_sabe"}
	Alcool            = []string{"nao_bebe", "socialmente", "frequentemente"}
	Tabagismo         = []string{"nunca", "ex", "atual"}
	UltimaConsulta    = []string{"7d", "15d", "30d", "60d", "90d", "6m", "1a", ">1a"}
	ClassificacaoPA   = []string{"normal", "pre_hipertenso", "estagio1", "estagio2", "estagio3"}
	Framingham        = []string{"<10", "10-20", ">20"}
	CondutasHAS       = []string{"aps", "encaminhamento", "grupo", "outro"}

	TipoTratamento = []string{"medicamentoso", "insulina", "alimentar", "outro"}
	Comorbidades   = []string{"cardiaca", "renal", "visual", "vascular", "outra"}
	TriagemDM      = []string{"normal", "glicemia_alterada", "suspeita_dm", "diagnostico_confirmado"}
	CondutasDM     = []string{"confirmacao_lab", "inicio_trat", "orientacao", "encaminhamento_med", "outro"}

	DoencasTransmissiveis = []string{
		"chagas", "leishmaniose", "tuberculose",
		"toxoplasmose", "esporotricose", "hanseniase",
	}
	EncMultiprof = []string{
		"psicologo", "medico_vet", "fisioterapeuta", "assistente_social",
		"enfermeira", "nutricionista", "cirurgia_dentista", "outro",
	}

	TiposConsulta = []string{"consulta", "retorno", "avaliacao", "outro"}
)

func oneOf(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func allOf(set []string, vs []string) bool {
	for _, v := range vs {
		if !oneOf(set, v) {
			return false
		}
	}
	return true
}
