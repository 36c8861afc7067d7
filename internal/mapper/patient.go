package mapper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
)

// UserPayload is the nested login account sent only on create.
type UserPayload struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
}

// PatientPayload is the flat patient resource accepted by
// /api/v1/accounts/patients/.
type PatientPayload struct {
	User *UserPayload `json:"user,omitempty"`

	CPF                  *string `json:"cpf"`
	BirthDate            *string `json:"birth_date"`
	Age                  *int    `json:"age"`
	Gender               *string `json:"gender"`
	RaceEthnicity        *string `json:"race_ethnicity"`
	Scholarity           *string `json:"scholarity"`
	Occupation           *string `json:"occupation"`
	CivilStatus          *string `json:"civil_status"`
	PeoplePerHousehold   *int    `json:"people_per_household"`
	FamilyResponsability *string `json:"family_responsability"`
	FamilyIncome         *string `json:"family_income"`
	BolsaFamilia         *bool   `json:"bolsa_familia"`
	MicroArea            *int    `json:"micro_area"`
	Address              *int    `json:"address"`
	Phone                *string `json:"phone"`
	Whatsapp             *bool   `json:"whatsapp"`

	UsePsychotropicMedication       *bool   `json:"use_psychotropic_medication"`
	UsePsychotropicMedicationAnswer *string `json:"use_psychotropic_medication_answer"`
	PsychDiagnosis                  *bool   `json:"any_psychological_psychiatric_diagnosis"`
	PsychDiagnosisAnswer            *string `json:"any_psychological_psychiatric_diagnosis_answer"`
	StressInterferes                *bool   `json:"everyday_stress_interfere_with_your_BP_BS_control"`
	EconomicFactorsInterfere        *bool   `json:"economic_factors_interfere_with_your_treatment"`
	FeelsSupported                  *bool   `json:"feel_receive_support_from_family_friends_to_maintain_treatment"`
	FollowsGuidelines               *bool   `json:"regularly_follow_health_guidelines"`

	PetsAtHome               *bool   `json:"presence_of_pets_at_home"`
	PetsAtHomeAnswer         *string `json:"presence_of_pets_at_home_answer"`
	AnimalsVaccinated        *bool   `json:"your_animals_are_vaccinated"`
	DelayedWoundHealing      *bool   `json:"delayed_wound_healing_after_scratches_or_bites"`
	TransmissibleDisease     *string `json:"diagnosed_transmissible_disease_in_household"`
	ContactAnimalFluids      *string `json:"direct_contact_with_animal_bodily_fluids"`
	ReceivedZoonosesGuidance *bool   `json:"received_guidance_on_zoonoses"`
	PhysicalActivity         *bool   `json:"performs_physical_activity"`
	PhysicalActivityAnswer   *string `json:"performs_physical_activity_answer"`
	Edema                    *bool   `json:"has_edema"`
	Dyspnea                  *bool   `json:"has_dyspnea"`
	ParesthesiaOrCramps      *bool   `json:"has_paresthesia_or_cramps"`
	DifficultyWalking        *bool   `json:"has_difficulty_walking_or_activity"`
	RequiresReferral         *bool   `json:"requires_multidisciplinary_referral"`
	RequiresReferralChoice   *string `json:"requires_multidisciplinary_referral_choose"`
	Feed                     *string `json:"feed"`
	SaltConsumption          *string `json:"salt_consumption"`
	AlcoholConsumption       *string `json:"alcohol_consumption"`
	Smoking                  *string `json:"smoking"`
	LastConsultation         *string `json:"last_consultation"`
}

// Mode mirrors schema.Mode: create sends the nested user, edit never does.
type Mode = schema.Mode

// PatientToAPI maps the form to the patient payload. addressID, when set,
// overrides socio.address_id (the orchestrator passes the address it just
// created or updated). now anchors the derived age.
func PatientToAPI(f form.FormState, mode Mode, addressID *int, now time.Time) PatientPayload {
	s := f.Socio
	m := f.Multiprof

	var user *UserPayload
	cpf := OnlyDigits(s.SusCPF)
	if mode == schema.Create && cpf != "" {
		first, last := SplitName(s.Nome)
		if first == "" {
			first = "Paciente"
		}
		password := s.Password
		if password == "" {
			password = GeneratePassword()
		}
		user = &UserPayload{
			Username:  cpf,
			FirstName: first,
			LastName:  last,
			Email:     strings.TrimSpace(s.Email),
			Password:  password,
		}
	}

	addr := s.AddressID
	if addressID != nil {
		addr = addressID
	}

	p := PatientPayload{
		User:                 user,
		CPF:                  optString(cpf),
		BirthDate:            ToDateISO(s.Nascimento),
		Age:                  AgeFromBirth(s.Nascimento, now),
		Gender:               optString(s.Genero),
		RaceEthnicity:        optString(s.RacaEtnia),
		Scholarity:           Scholarity.ptr(s.Escolaridade),
		Occupation:           optString(s.Ocupacao),
		CivilStatus:          CivilStatus.ptr(s.EstadoCivil),
		PeoplePerHousehold:   s.NPessoasDomicilio,
		FamilyResponsability: optString(s.ResponsavelFamiliar),
		FamilyIncome:         Decimal2(s.RendaFamiliar),
		BolsaFamilia:         s.BolsaFamilia,
		MicroArea:            s.MicroAreaID,
		Address:              addr,
		Phone:                optString(OnlyDigits(s.Telefone)),
		Whatsapp:             s.Whatsapp,

		UsePsychotropicMedication:       m.PsicoUsoPsicofarmaco.Bool(),
		UsePsychotropicMedicationAnswer: optString(m.PsicoPsicofarmacoQual),
		PsychDiagnosis:                  m.PsicoDiagnostico.Bool(),
		PsychDiagnosisAnswer:            optString(m.PsicoDiagnosticoQual),
		StressInterferes:                m.PsicoEstresseInterfere.Bool(),
		EconomicFactorsInterfere:        m.PsicoFatoresEconomicos.Bool(),
		FeelsSupported:                  m.PsicoApoioSuficiente.Bool(),
		FollowsGuidelines:               m.PsicoCumpreOrientacoes.Bool(),

		PetsAtHome:               m.AmbiAnimaisDomicilio.Bool(),
		PetsAtHomeAnswer:         optString(m.AmbiAnimaisQuais),
		AnimalsVaccinated:        m.AmbiAnimaisVacinados.Bool(),
		DelayedWoundHealing:      m.AmbiFeridasDemoram.Bool(),
		TransmissibleDisease:     TransmissibleDisease.firstOf(m.AmbiDoencasTransmissiveis, ""),
		ContactAnimalFluids:      optString(string(m.AmbiContatoSangueFezesUrina)),
		ReceivedZoonosesGuidance: m.AmbiOrientacaoZoonoses.Bool(),

		PhysicalActivity:    m.FisicoAtividade.Bool(),
		Edema:               m.FisicoEdemas.Bool(),
		Dyspnea:             m.FisicoDispneia.Bool(),
		ParesthesiaOrCramps: m.FisicoFormigamentoCaimbras.Bool(),
		DifficultyWalking:   m.FisicoDificuldadeCaminhar.Bool(),

		RequiresReferral:       m.PrecisaEncMultiprof.Bool(),
		RequiresReferralChoice: Referral.firstOf(m.EncMultiprof, "outro"),
	}
	if m.FisicoAtividadeFreqSemana != nil {
		v := strconv.Itoa(*m.FisicoAtividadeFreqSemana)
		p.PhysicalActivityAnswer = &v
	}

	life, last := lifestyleSource(f)
	p.Feed = Feeding.ptr(life.EstiloAlimentacao)
	p.SaltConsumption = Salt.ptr(life.Sal)
	p.AlcoholConsumption = Alcohol.ptr(life.Alcool)
	p.Smoking = Smoking.ptr(life.Tabagismo)
	p.LastConsultation = LastConsultation.ptr(last)
	return p
}

// lifestyleSource picks the block the patient-level lifestyle comes from:
// HAS when it holds anything, otherwise DM. The last consultation falls back
// to the DM value when the HAS one is blank.
func lifestyleSource(f form.FormState) (form.Lifestyle, string) {
	h, d := f.Clinica.HAS, f.Clinica.DM
	var life form.Lifestyle
	switch {
	case h != nil && (h.HasData() || h.Lifestyle != (form.Lifestyle{}) || h.UltimaConsultaHAS != ""):
		life = h.Lifestyle
	case d != nil:
		life = d.Lifestyle
	}
	var last string
	if h != nil {
		last = h.UltimaConsultaHAS
	}
	if last == "" && d != nil {
		last = d.UltimaConsultaDM
	}
	return life, last
}

// SplitName breaks a full name into first name and the remainder.
func SplitName(nome string) (first, last string) {
	parts := strings.Fields(nome)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ---------------------------------------------------------------------------
// Read side
// ---------------------------------------------------------------------------

// UserRef is the patient's login account. The backend returns either the
// bare primary key or the nested object depending on the serializer.
type UserRef struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u *UserRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		if bytes.Equal(b, []byte("null")) {
			return nil
		}
		return json.Unmarshal(b, &u.ID)
	}
	type plain UserRef
	return json.Unmarshal(b, (*plain)(u))
}

// FullName joins first and last name.
func (u UserRef) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// AddressRef is an address link that may arrive as an id or an object.
type AddressRef struct {
	ID     *int
	Record *AddressRecord
}

func (a *AddressRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '{':
		var rec AddressRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return err
		}
		a.Record = &rec
		a.ID = &rec.ID
		return nil
	}
	var id int
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	a.ID = &id
	return nil
}

func (a AddressRef) MarshalJSON() ([]byte, error) {
	if a.Record != nil {
		return json.Marshal(a.Record)
	}
	return json.Marshal(a.ID)
}

// PatientRecord is a patient as returned by the backend.
type PatientRecord struct {
	PatientPayload
	ID         int            `json:"id"`
	User       UserRef        `json:"user"`
	Address    AddressRef     `json:"address"`
	AddressObj *AddressRecord `json:"address_obj,omitempty"`
}

// AddressRecord returns the embedded address, preferring address_obj.
func (p PatientRecord) AddressRecord() *AddressRecord {
	if p.AddressObj != nil {
		return p.AddressObj
	}
	return p.Address.Record
}

// PatientFromAPI hydrates the sociodemographic part of the form from a
// patient record. Conditions start unset; the loader fills them from the
// case lists.
func PatientFromAPI(p PatientRecord) form.FormState {
	f := form.New()
	s := &f.Socio
	s.Nome = p.User.FullName()
	s.Email = p.User.Email
	s.SusCPF = deref(p.CPF)
	s.Nascimento = dateOnly(p.BirthDate)
	s.Genero = deref(p.Gender)
	s.RacaEtnia = deref(p.RaceEthnicity)
	s.Telefone = deref(p.Phone)
	s.Whatsapp = p.Whatsapp
	s.NPessoasDomicilio = p.PeoplePerHousehold
	s.ResponsavelFamiliar = deref(p.FamilyResponsability)
	s.RendaFamiliar = parseNum(p.FamilyIncome)
	s.BolsaFamilia = p.BolsaFamilia
	s.Escolaridade = Scholarity.from(p.Scholarity)
	s.Ocupacao = deref(p.Occupation)
	s.EstadoCivil = CivilStatus.from(p.CivilStatus)
	s.MicroAreaID = p.MicroArea
	s.AddressID = p.Address.ID
	if rec := p.AddressRecord(); rec != nil {
		s.Endereco = AddressFromAPI(*rec)
		if s.AddressID == nil && rec.ID != 0 {
			id := rec.ID
			s.AddressID = &id
		}
	}

	m := &f.Multiprof
	m.PsicoUsoPsicofarmaco = form.SimNaoFromBool(p.UsePsychotropicMedication)
	m.PsicoPsicofarmacoQual = deref(p.UsePsychotropicMedicationAnswer)
	m.PsicoDiagnostico = form.SimNaoFromBool(p.PsychDiagnosis)
	m.PsicoDiagnosticoQual = deref(p.PsychDiagnosisAnswer)
	m.PsicoEstresseInterfere = form.SimNaoFromBool(p.StressInterferes)
	m.PsicoFatoresEconomicos = form.SimNaoFromBool(p.EconomicFactorsInterfere)
	m.PsicoApoioSuficiente = form.SimNaoFromBool(p.FeelsSupported)
	m.PsicoCumpreOrientacoes = form.SimNaoFromBool(p.FollowsGuidelines)
	m.AmbiAnimaisDomicilio = form.SimNaoFromBool(p.PetsAtHome)
	m.AmbiAnimaisQuais = deref(p.PetsAtHomeAnswer)
	m.AmbiAnimaisVacinados = form.SimNaoFromBool(p.AnimalsVaccinated)
	m.AmbiFeridasDemoram = form.SimNaoFromBool(p.DelayedWoundHealing)
	m.AmbiDoencasTransmissiveis = TransmissibleDisease.listFrom(p.TransmissibleDisease)
	if v, ok := form.ParseTriState(deref(p.ContactAnimalFluids)); ok {
		m.AmbiContatoSangueFezesUrina = v
	}
	m.AmbiOrientacaoZoonoses = form.SimNaoFromBool(p.ReceivedZoonosesGuidance)
	m.FisicoAtividade = form.SimNaoFromBool(p.PhysicalActivity)
	if n, err := strconv.Atoi(strings.TrimSpace(deref(p.PhysicalActivityAnswer))); err == nil {
		m.FisicoAtividadeFreqSemana = &n
	}
	m.FisicoEdemas = form.SimNaoFromBool(p.Edema)
	m.FisicoDispneia = form.SimNaoFromBool(p.Dyspnea)
	m.FisicoFormigamentoCaimbras = form.SimNaoFromBool(p.ParesthesiaOrCramps)
	m.FisicoDificuldadeCaminhar = form.SimNaoFromBool(p.DifficultyWalking)
	m.PrecisaEncMultiprof = form.SimNaoFromBool(p.RequiresReferral)
	m.EncMultiprof = Referral.listFrom(p.RequiresReferralChoice)
	return f
}

// ApplyLifestyle copies the patient-level lifestyle into both clinical
// blocks, creating them if needed, without overwriting values already there.
func ApplyLifestyle(f form.FormState, p PatientRecord) form.FormState {
	feed := Feeding.from(p.Feed)
	salt := Salt.from(p.SaltConsumption)
	alcohol := Alcohol.from(p.AlcoholConsumption)
	smoking := Smoking.from(p.Smoking)
	last := LastConsultation.from(p.LastConsultation)

	if f.Clinica.HAS == nil {
		f.Clinica.HAS = &form.ClinicaHAS{}
	} else {
		h := *f.Clinica.HAS
		f.Clinica.HAS = &h
	}
	if f.Clinica.DM == nil {
		f.Clinica.DM = &form.ClinicaDM{}
	} else {
		d := *f.Clinica.DM
		f.Clinica.DM = &d
	}

	fill := func(l *form.Lifestyle) {
		setIfEmpty(&l.EstiloAlimentacao, feed)
		setIfEmpty(&l.Sal, salt)
		setIfEmpty(&l.Alcool, alcohol)
		setIfEmpty(&l.Tabagismo, smoking)
	}
	fill(&f.Clinica.HAS.Lifestyle)
	fill(&f.Clinica.DM.Lifestyle)
	setIfEmpty(&f.Clinica.HAS.UltimaConsultaHAS, last)
	setIfEmpty(&f.Clinica.DM.UltimaConsultaDM, last)
	return f
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
