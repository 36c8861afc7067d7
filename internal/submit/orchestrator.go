// Package submit saves a registration form through the REST API and
// hydrates forms for editing.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/schema"
)

// Backend is the part of the API client a submit needs.
type Backend interface {
	CreateAddress(ctx context.Context, p mapper.AddressPayload) (mapper.AddressRecord, error)
	UpdateAddress(ctx context.Context, id int, p mapper.AddressPayload) (mapper.AddressRecord, error)
	CreatePatient(ctx context.Context, p mapper.PatientPayload) (mapper.PatientRecord, error)
	UpdatePatient(ctx context.Context, id int, p mapper.PatientPayload) (mapper.PatientRecord, error)
	CreateHAS(ctx context.Context, p mapper.HASPayload) (mapper.HASRecord, error)
	UpdateHAS(ctx context.Context, id int, p mapper.HASPayload) (mapper.HASRecord, error)
	CreateDM(ctx context.Context, p mapper.DMPayload) (mapper.DMRecord, error)
	UpdateDM(ctx context.Context, id int, p mapper.DMPayload) (mapper.DMRecord, error)
	ListProfessionals(ctx context.Context) ([]api.Professional, error)
	CreateAppointment(ctx context.Context, p mapper.AppointmentPayload) (mapper.AppointmentRecord, error)
}

// Stage names the step of a submit that failed.
type Stage string

const (
	StageValidation Stage = "validation"
	StageAddress    Stage = "address"
	StagePatient    Stage = "patient"
	StageHAS        Stage = "has"
	StageDM         Stage = "dm"
)

// SubmitError aborts a submit. Writes made before the failing stage stay in
// place; nothing is rolled back.
type SubmitError struct {
	Stage Stage
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Message is the text shown to the user.
func (e *SubmitError) Message() string {
	switch {
	case e.Stage == StageValidation:
		return "Revise os campos destacados antes de continuar."
	case apperr.IsDuplicateCPF(e.Err):
		return "Já existe um paciente cadastrado com este CPF."
	}
	prefix := map[Stage]string{
		StageAddress: "Erro ao salvar endereço",
		StagePatient: "Erro ao salvar paciente",
		StageHAS:     "Erro ao salvar dados de HAS",
		StageDM:      "Erro ao salvar dados de DM",
	}[e.Stage]
	return prefix + ": " + apperr.Message(e.Err)
}

// Target identifies the records an edit updates. The zero Target creates.
type Target struct {
	PatientID int
	HASID     *int
	DMID      *int
}

// Identity is the logged-in account, used to find the acting professional.
type Identity struct {
	ProfessionalID int // from the token claim, 0 when absent
	UserID         int
	Username       string
}

// Result reports what a submit wrote.
type Result struct {
	Mode              schema.Mode
	PatientID         int
	AddressID         *int
	HASID             *int
	DMID              *int
	ProfessionalID    int
	AppointmentIDs    []int
	GeneratedPassword string
	Warnings          []string
}

// Orchestrator runs the serial submit: address, patient, conditions, then
// appointments. Later calls need ids produced by earlier ones.
type Orchestrator struct {
	API      Backend
	Log      *zap.Logger
	Now      func() time.Time
	Identity Identity
	// AppointmentHour is the local hour plan dates are scheduled at.
	AppointmentHour int
}

// NewOrchestrator wires an orchestrator with defaults.
func NewOrchestrator(b Backend, id Identity, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{API: b, Log: log.Named("submit"), Now: time.Now, Identity: id, AppointmentHour: 9}
}

// Submit saves f. Address, patient and condition failures abort with a
// *SubmitError; appointment failures only add warnings to the Result.
func (o *Orchestrator) Submit(ctx context.Context, f form.FormState, mode schema.Mode, t Target) (Result, error) {
	res := Result{Mode: mode}
	if mode == schema.Edit && t.PatientID == 0 {
		return res, &SubmitError{Stage: StagePatient, Err: errors.New("edit without patient id")}
	}

	f = form.Normalize(f)
	if errs := schema.Validate(f, mode); len(errs) > 0 {
		return res, &SubmitError{Stage: StageValidation, Err: apperr.Validation("formulário inválido", errs.Map())}
	}

	// 1. address
	addrID, warn, err := o.saveAddress(ctx, f.Socio)
	if err != nil {
		return res, &SubmitError{Stage: StageAddress, Err: err}
	}
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	res.AddressID = addrID
	f.Socio.AddressID = addrID

	// 2. patient
	payload := mapper.PatientToAPI(f, mode, addrID, o.now())
	var patient mapper.PatientRecord
	if mode == schema.Create {
		patient, err = o.API.CreatePatient(ctx, payload)
	} else {
		patient, err = o.API.UpdatePatient(ctx, t.PatientID, payload)
	}
	if err != nil {
		return res, &SubmitError{Stage: StagePatient, Err: err}
	}
	res.PatientID = patient.ID
	if mode == schema.Edit {
		res.PatientID = t.PatientID
	}
	if mode == schema.Create && payload.User != nil && f.Socio.Password == "" {
		res.GeneratedPassword = payload.User.Password
	}
	o.Log.Info("patient saved", zap.Int("patient_id", res.PatientID), zap.String("mode", mode.String()))

	// 3. conditions
	res.HASID, err = o.saveHAS(ctx, f, res.PatientID, t.HASID, &res)
	if err != nil {
		return res, &SubmitError{Stage: StageHAS, Err: err}
	}
	res.DMID, err = o.saveDM(ctx, f, res.PatientID, t.DMID, &res)
	if err != nil {
		return res, &SubmitError{Stage: StageDM, Err: err}
	}

	// 4. appointments
	o.scheduleAppointments(ctx, f, mode, &res)
	return res, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// saveAddress creates or updates the address. A cleared address unlinks it;
// an incomplete one keeps the current link and warns.
func (o *Orchestrator) saveAddress(ctx context.Context, s form.Socio) (*int, string, error) {
	p := mapper.AddressToAPI(s.Endereco)
	if p == nil {
		if s.Endereco.IsEmpty() {
			return nil, "", nil
		}
		return s.AddressID, "Endereço incompleto: informe logradouro, bairro, cidade e UF para salvá-lo.", nil
	}
	var (
		rec mapper.AddressRecord
		err error
	)
	if s.AddressID != nil {
		rec, err = o.API.UpdateAddress(ctx, *s.AddressID, *p)
	} else {
		rec, err = o.API.CreateAddress(ctx, *p)
	}
	if err != nil {
		return nil, "", err
	}
	id := rec.ID
	return &id, "", nil
}

func (o *Orchestrator) saveHAS(ctx context.Context, f form.FormState, patientID int, existing *int, res *Result) (*int, error) {
	p := mapper.HASToAPI(f, patientID)
	if p == nil {
		if existing != nil {
			res.Warnings = append(res.Warnings, "HAS desmarcada: o registro existente não foi removido.")
			o.Log.Warn("has case left in place", zap.Int("has_id", *existing))
		}
		return existing, nil
	}
	var (
		rec mapper.HASRecord
		err error
	)
	if existing != nil {
		rec, err = o.API.UpdateHAS(ctx, *existing, *p)
	} else {
		rec, err = o.API.CreateHAS(ctx, *p)
	}
	if err != nil {
		return existing, err
	}
	id := rec.ID
	return &id, nil
}

func (o *Orchestrator) saveDM(ctx context.Context, f form.FormState, patientID int, existing *int, res *Result) (*int, error) {
	p := mapper.DMToAPI(f, patientID)
	if p == nil {
		if existing != nil {
			res.Warnings = append(res.Warnings, "DM desmarcada: o registro existente não foi removido.")
			o.Log.Warn("dm case left in place", zap.Int("dm_id", *existing))
		}
		return existing, nil
	}
	var (
		rec mapper.DMRecord
		err error
	)
	if existing != nil {
		rec, err = o.API.UpdateDM(ctx, *existing, *p)
	} else {
		rec, err = o.API.CreateDM(ctx, *p)
	}
	if err != nil {
		return existing, err
	}
	id := rec.ID
	return &id, nil
}

// scheduleAppointments books the primary visit and the follow-up. On create
// the primary visit defaults to now; on edit only dated visits are booked.
// Failures are warnings.
func (o *Orchestrator) scheduleAppointments(ctx context.Context, f form.FormState, mode schema.Mode, res *Result) {
	primary, hasPrimary := o.planTime(f.Plano.DataConsulta)
	if !hasPrimary && mode == schema.Create {
		primary, hasPrimary = o.now(), true
	}
	followUp, hasFollowUp := o.planTime(f.Plano.DataRetorno)
	if !hasPrimary && !hasFollowUp {
		return
	}

	profID, err := o.ResolveProfessional(ctx)
	if err != nil {
		o.Log.Warn("professional not resolved", zap.Error(err))
		res.Warnings = append(res.Warnings, "Paciente salvo, mas a consulta não foi agendada: profissional não identificado.")
		return
	}
	res.ProfessionalID = profID

	book := func(when time.Time, kind mapper.AppointmentKind, label string) {
		rec, err := o.API.CreateAppointment(ctx, mapper.AppointmentToAPI(res.PatientID, profID, when, kind, f))
		if err != nil {
			o.Log.Warn("appointment failed", zap.String("kind", label), zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("Paciente salvo, mas houve falha ao agendar %s: %s", label, apperr.Message(err)))
			return
		}
		res.AppointmentIDs = append(res.AppointmentIDs, rec.ID)
	}
	if hasPrimary {
		book(primary, mapper.Primary, "a consulta")
	}
	if hasFollowUp {
		book(followUp, mapper.FollowUp, "o retorno")
	}
}

func (o *Orchestrator) planTime(date string) (time.Time, bool) {
	d, ok := form.ParseDate(date)
	if !ok {
		return time.Time{}, false
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, o.AppointmentHour, 0, 0, 0, time.Local), true
}

// ResolveProfessional finds the acting professional: the token claim first,
// then the professionals list matched by user id or username.
func (o *Orchestrator) ResolveProfessional(ctx context.Context) (int, error) {
	if o.Identity.ProfessionalID > 0 {
		return o.Identity.ProfessionalID, nil
	}
	if o.Identity.UserID == 0 && o.Identity.Username == "" {
		return 0, errors.New("no identity to match")
	}
	pros, err := o.API.ListProfessionals(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing professionals: %w", err)
	}
	for _, p := range pros {
		if o.Identity.UserID != 0 && p.User.ID == o.Identity.UserID {
			return p.ID, nil
		}
	}
	for _, p := range pros {
		if o.Identity.Username != "" && p.User.Username == o.Identity.Username {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("user %q is not a professional", o.Identity.Username)
}
