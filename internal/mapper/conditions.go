package mapper

import (
	"github.com/rastreiamais/rastreia/internal/form"
)

// HASPayload is the systolic hypertension case resource.
type HASPayload struct {
	Patient          int      `json:"patient"`
	IsDiagnosed      *bool    `json:"is_diagnosed"`
	UsesMedication   *string  `json:"uses_medication"`
	MedicationsName  *string  `json:"medications_name"`
	FamilyHistory    *bool    `json:"family_history"`
	BP11             *int     `json:"BP_assessment1_1"`
	BP12             *int     `json:"BP_assessment1_2"`
	BP21             *int     `json:"BP_assessment2_1"`
	BP22             *int     `json:"BP_assessment2_2"`
	Weight           *string  `json:"weight"`
	Height           *string  `json:"height"`
	IMC              *string  `json:"IMC"`
	AbdominalCirc    *string  `json:"abdominal_circumference"`
	TotalCholesterol *float64 `json:"total_cholesterol"`
	CholesterolDate  *string  `json:"cholesterol_data"`
	HDLCholesterol   *float64 `json:"HDL_cholesterol"`
	HDLDate          *string  `json:"HDL_data"`
	BPClassification *string  `json:"BP_classifications"`
	FraminghamScore  *string  `json:"framingham_score"`
	ConductAdopted   *string  `json:"conduct_adopted"`
	Complications    *string  `json:"any_complications_HBP"`
}

// HASRecord is a hypertension case as returned by the backend.
type HASRecord struct {
	ID int `json:"id"`
	HASPayload
}

// DMPayload is the diabetes mellitus case resource.
type DMPayload struct {
	Patient         int     `json:"patient"`
	IsDiagnosed     *bool   `json:"is_diagnosed"`
	UsesMedication  *string `json:"uses_medication"`
	MedicationsName *string `json:"medications_name"`
	FamilyHistory   *bool   `json:"family_history"`

	GlucoseRandom  *string `json:"capillary_blood_glucose_random"`
	GlucoseFasting *string `json:"fasting_capillary_blood_glucose"`
	HbA1c          *string `json:"glycated_hemoglobin"`
	Weight         *string `json:"weight"`
	Height         *string `json:"height"`
	IMC            *string `json:"IMC"`
	AbdominalCirc  *string `json:"abdominal_circumference"`

	AgeOver45          *bool `json:"age_over_45"`
	Overweight         *bool `json:"overweight_or_obesity_imc_25"`
	PhysicalInactivity *bool `json:"physical_inactivity"`
	HighBloodPressure  *bool `json:"high_blood_pressure"`
	HighCholesterol    *bool `json:"high_cholesterol_or_triglycerides"`
	GestationalDM      *bool `json:"history_of_gestational_diabetes"`
	PCOS               *bool `json:"polycystic_ovary_syndrome"`

	ScreeningResult     *string `json:"screening_result"`
	AdoptedConduct      *string `json:"adopted_conduct"`
	AdoptedConductOther *string `json:"adopted_conduct_other"`

	TreatmentType       *string `json:"treatment_type"`
	TreatmentTypeOther  *string `json:"treatment_type_other"`
	Comorbidities       *string `json:"diabetes_comorbidities"`
	ComorbiditiesOthers *string `json:"diabetes_comorbidities_others"`
	DiabeticFoot        *bool   `json:"diabetic_foot"`
	DiabeticFootMember  *string `json:"diabetic_foot_member"`
}

// DMRecord is a diabetes case as returned by the backend.
type DMRecord struct {
	ID int `json:"id"`
	DMPayload
}

// HASToAPI maps clinica.has. It returns nil, meaning "leave the resource
// alone", when the HAS flag is off and no clinical field was filled in.
func HASToAPI(f form.FormState, patientID int) *HASPayload {
	h := f.Clinica.HAS
	if !f.Condicoes.HAS && !h.HasData() {
		return nil
	}
	if h == nil {
		h = &form.ClinicaHAS{}
	}
	imc := h.IMC
	if derived := form.DeriveIMC(h.Peso, h.Altura); derived != nil {
		imc = derived
	}
	return &HASPayload{
		Patient:          patientID,
		IsDiagnosed:      h.DiagHAS.Bool(),
		UsesMedication:   Treatment.ptr(h.UsaMedicacao),
		MedicationsName:  optString(h.Medicamentos),
		FamilyHistory:    h.HistoricoFamiliar.Bool(),
		BP11:             h.PA1Sis,
		BP12:             h.PA1Dia,
		BP21:             h.PA2Sis,
		BP22:             h.PA2Dia,
		Weight:           Decimal2(h.Peso),
		Height:           Decimal2(h.Altura),
		IMC:              Decimal2(imc),
		AbdominalCirc:    Decimal2(h.CircAbdominal),
		TotalCholesterol: h.ColTotal,
		CholesterolDate:  ToDateISO(h.ColTotalData),
		HDLCholesterol:   h.HDL,
		HDLDate:          ToDateISO(h.HDLData),
		BPClassification: BPClassification.ptr(h.ClassificacaoPA),
		FraminghamScore:  Framingham.ptr(h.Framingham),
		ConductAdopted:   ConductHAS.firstOf(h.Condutas, "outro"),
		Complications:    ComplicationHAS.firstOf(h.Complicacoes, "outra"),
	}
}

// HASFromAPI rebuilds clinica.has from a case record. A missing medication
// answer reads back as nao_se_aplica and unknown booleans as nao_sabe.
func HASFromAPI(r HASRecord) *form.ClinicaHAS {
	h := &form.ClinicaHAS{
		DiagHAS:           form.TriFromBool(r.IsDiagnosed),
		UsaMedicacao:      treatmentFrom(r.UsesMedication),
		Medicamentos:      deref(r.MedicationsName),
		HistoricoFamiliar: form.TriFromBool(r.FamilyHistory),
		PA1Sis:            r.BP11,
		PA1Dia:            r.BP12,
		PA2Sis:            r.BP21,
		PA2Dia:            r.BP22,
		ColTotal:          r.TotalCholesterol,
		ColTotalData:      dateOnly(r.CholesterolDate),
		HDL:               r.HDLCholesterol,
		HDLData:           dateOnly(r.HDLDate),
		ClassificacaoPA:   BPClassification.from(r.BPClassification),
		Framingham:        Framingham.from(r.FraminghamScore),
		Condutas:          ConductHAS.listFrom(r.ConductAdopted),
		Complicacoes:      ComplicationHAS.listFrom(r.Complications),
	}
	h.Peso = parseNum(r.Weight)
	h.Altura = parseNum(r.Height)
	h.IMC = parseNum(r.IMC)
	h.CircAbdominal = parseNum(r.AbdominalCirc)
	return h
}

// DMToAPI maps clinica.dm with the same nil-or-payload rule as HASToAPI.
func DMToAPI(f form.FormState, patientID int) *DMPayload {
	d := f.Clinica.DM
	if !f.Condicoes.DM && !d.HasData() {
		return nil
	}
	if d == nil {
		d = &form.ClinicaDM{}
	}
	imc := d.IMC
	if derived := form.DeriveIMC(d.Peso, d.Altura); derived != nil {
		imc = derived
	}

	p := &DMPayload{
		Patient:         patientID,
		IsDiagnosed:     d.DiagDM.Bool(),
		UsesMedication:  Treatment.ptr(d.UsaMedicacao),
		MedicationsName: optString(d.Medicamentos),
		FamilyHistory:   d.HistoricoFamiliar.Bool(),

		GlucoseRandom:  numString(d.GlicemiaAleatoria),
		GlucoseFasting: numString(d.GlicemiaJejum),
		HbA1c:          numString(d.HbA1c),
		Weight:         Decimal2(d.Peso),
		Height:         Decimal2(d.Altura),
		IMC:            Decimal2(imc),
		AbdominalCirc:  Decimal2(d.CircAbdominal),

		AgeOver45:          d.RiscoIdade45.Bool(),
		Overweight:         d.RiscoIMC25.Bool(),
		PhysicalInactivity: d.RiscoSedentarismo.Bool(),
		HighBloodPressure:  d.RiscoPAElevada.Bool(),
		HighCholesterol:    d.RiscoLipidiosAlterados.Bool(),
		GestationalDM:      simNaoNSA(d.RiscoDMGestacional),
		PCOS:               simNaoNSA(d.RiscoSOP),

		ScreeningResult: ScreeningDM.ptr(d.TriagemDM),
		AdoptedConduct:  ConductDM.firstOf(d.Condutas, "outro"),
		TreatmentType:   TreatmentTypeDM.firstOf(d.TipoTratamento, "outro"),
		Comorbidities:   ComorbidityDM.firstOf(d.Comorbidades, "outra"),
		DiabeticFoot:    d.PeDiabetico.Bool(),
	}
	if contains(d.Condutas, "outro") {
		p.AdoptedConductOther = optString(d.CondutaOutro)
	}
	if d.PeDiabetico == form.Sim {
		p.DiabeticFootMember = optString(d.PeDiabeticoMembro)
	}
	return p
}

// DMFromAPI rebuilds clinica.dm from a case record.
func DMFromAPI(r DMRecord) *form.ClinicaDM {
	d := &form.ClinicaDM{
		DiagDM:            form.TriFromBool(r.IsDiagnosed),
		UsaMedicacao:      treatmentFrom(r.UsesMedication),
		Medicamentos:      deref(r.MedicationsName),
		HistoricoFamiliar: form.TriFromBool(r.FamilyHistory),
		TipoTratamento:    TreatmentTypeDM.listFrom(r.TreatmentType),
		Comorbidades:      ComorbidityDM.listFrom(r.Comorbidities),
		PeDiabetico:       form.SimNaoFromBool(r.DiabeticFoot),
		PeDiabeticoMembro: deref(r.DiabeticFootMember),

		GlicemiaAleatoria: parseNum(r.GlucoseRandom),
		GlicemiaJejum:     parseNum(r.GlucoseFasting),
		HbA1c:             parseNum(r.HbA1c),

		TriagemDM: ScreeningDM.from(r.ScreeningResult),

		RiscoIdade45:           form.SimNaoFromBool(r.AgeOver45),
		RiscoIMC25:             form.SimNaoFromBool(r.Overweight),
		RiscoSedentarismo:      form.SimNaoFromBool(r.PhysicalInactivity),
		RiscoPAElevada:         form.SimNaoFromBool(r.HighBloodPressure),
		RiscoLipidiosAlterados: form.SimNaoFromBool(r.HighCholesterol),
		RiscoDMGestacional:     string(form.SimNaoFromBool(r.GestationalDM)),
		RiscoSOP:               string(form.SimNaoFromBool(r.PCOS)),

		Condutas: ConductDM.listFrom(r.AdoptedConduct),
	}
	if other := deref(r.AdoptedConductOther); other != "" {
		d.Condutas = append(d.Condutas, "outro")
		d.CondutaOutro = other
	}
	d.Peso = parseNum(r.Weight)
	d.Altura = parseNum(r.Height)
	d.IMC = parseNum(r.IMC)
	d.CircAbdominal = parseNum(r.AbdominalCirc)
	return d
}

func treatmentFrom(back *string) string {
	if v := Treatment.from(back); v != "" {
		return v
	}
	return "nao_se_aplica"
}

// simNaoNSA maps sim/nao/nao_se_aplica; "not applicable" has no boolean.
func simNaoNSA(v string) *bool {
	return form.TriState(v).Bool()
}

func contains(vs []string, want string) bool {
	for _, v := range vs {
		if v == want {
			return true
		}
	}
	return false
}
