package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rastreiamais/rastreia/internal/mapper"
)

// Resource paths.
const (
	PathPatients      = "/api/v1/accounts/patients/"
	PathProfessionals = "/api/v1/accounts/professionals/"
	PathHAS           = "/api/v1/conditions/systolic-hypertension-cases/"
	PathDM            = "/api/v1/conditions/diabetes-mellitus-cases/"
	PathAddress       = "/api/v1/locations/address/"
	PathInstitutions  = "/api/v1/locations/institutions/"
	PathAppointments  = "/api/v1/appointments/appointments/"
	PathAlerts        = "/api/v1/alerts/alerts/"
)

func item(base string, id int) string {
	return base + strconv.Itoa(id) + "/"
}

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

// ListPatients lists patients, optionally filtered by a search term.
func (c *Client) ListPatients(ctx context.Context, search string) ([]mapper.PatientRecord, error) {
	var q url.Values
	if search != "" {
		q = url.Values{"search": {search}}
	}
	return getList[mapper.PatientRecord](ctx, c, PathPatients, q)
}

// GetPatient fetches one patient.
func (c *Client) GetPatient(ctx context.Context, id int) (mapper.PatientRecord, error) {
	var p mapper.PatientRecord
	err := c.Get(ctx, item(PathPatients, id), nil, &p)
	return p, err
}

// CreatePatient creates a patient (and its login account).
func (c *Client) CreatePatient(ctx context.Context, p mapper.PatientPayload) (mapper.PatientRecord, error) {
	var out mapper.PatientRecord
	err := c.Post(ctx, PathPatients, p, &out)
	return out, err
}

// UpdatePatient patches a patient.
func (c *Client) UpdatePatient(ctx context.Context, id int, p mapper.PatientPayload) (mapper.PatientRecord, error) {
	var out mapper.PatientRecord
	err := c.Patch(ctx, item(PathPatients, id), p, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Professionals
// ---------------------------------------------------------------------------

// ListProfessionals lists professionals.
func (c *Client) ListProfessionals(ctx context.Context) ([]Professional, error) {
	return getList[Professional](ctx, c, PathProfessionals, nil)
}

// GetProfessional fetches one professional.
func (c *Client) GetProfessional(ctx context.Context, id int) (Professional, error) {
	var p Professional
	err := c.Get(ctx, item(PathProfessionals, id), nil, &p)
	return p, err
}

// ---------------------------------------------------------------------------
// Condition cases
// ---------------------------------------------------------------------------

func byPatient(patientID int) url.Values {
	if patientID <= 0 {
		return nil
	}
	return url.Values{"patient": {strconv.Itoa(patientID)}}
}

// ListHAS lists hypertension cases, filtered by patient when patientID > 0.
// The backend may ignore the filter, so callers still match on the id.
func (c *Client) ListHAS(ctx context.Context, patientID int) ([]mapper.HASRecord, error) {
	return getList[mapper.HASRecord](ctx, c, PathHAS, byPatient(patientID))
}

// CreateHAS creates a hypertension case.
func (c *Client) CreateHAS(ctx context.Context, p mapper.HASPayload) (mapper.HASRecord, error) {
	var out mapper.HASRecord
	err := c.Post(ctx, PathHAS, p, &out)
	return out, err
}

// UpdateHAS patches a hypertension case.
func (c *Client) UpdateHAS(ctx context.Context, id int, p mapper.HASPayload) (mapper.HASRecord, error) {
	var out mapper.HASRecord
	err := c.Patch(ctx, item(PathHAS, id), p, &out)
	return out, err
}

// ListDM lists diabetes cases, filtered by patient when patientID > 0.
func (c *Client) ListDM(ctx context.Context, patientID int) ([]mapper.DMRecord, error) {
	return getList[mapper.DMRecord](ctx, c, PathDM, byPatient(patientID))
}

// CreateDM creates a diabetes case.
func (c *Client) CreateDM(ctx context.Context, p mapper.DMPayload) (mapper.DMRecord, error) {
	var out mapper.DMRecord
	err := c.Post(ctx, PathDM, p, &out)
	return out, err
}

// UpdateDM patches a diabetes case.
func (c *Client) UpdateDM(ctx context.Context, id int, p mapper.DMPayload) (mapper.DMRecord, error) {
	var out mapper.DMRecord
	err := c.Patch(ctx, item(PathDM, id), p, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

// GetAddress fetches one address.
func (c *Client) GetAddress(ctx context.Context, id int) (mapper.AddressRecord, error) {
	var a mapper.AddressRecord
	err := c.Get(ctx, item(PathAddress, id), nil, &a)
	return a, err
}

// CreateAddress creates an address and returns it with its id.
func (c *Client) CreateAddress(ctx context.Context, p mapper.AddressPayload) (mapper.AddressRecord, error) {
	var out mapper.AddressRecord
	if err := c.Post(ctx, PathAddress, p, &out); err != nil {
		return out, err
	}
	if out.ID == 0 {
		return out, fmt.Errorf("POST %s: empty response", PathAddress)
	}
	return out, nil
}

// UpdateAddress patches an address.
func (c *Client) UpdateAddress(ctx context.Context, id int, p mapper.AddressPayload) (mapper.AddressRecord, error) {
	var out mapper.AddressRecord
	err := c.Patch(ctx, item(PathAddress, id), p, &out)
	if err == nil && out.ID == 0 {
		out.ID = id
	}
	return out, err
}

// ListInstitutions lists health units.
func (c *Client) ListInstitutions(ctx context.Context) ([]Institution, error) {
	return getList[Institution](ctx, c, PathInstitutions, nil)
}

// ---------------------------------------------------------------------------
// Appointments and alerts
// ---------------------------------------------------------------------------

// ListAppointments lists appointments; query may carry backend filters.
func (c *Client) ListAppointments(ctx context.Context, query url.Values) ([]mapper.AppointmentRecord, error) {
	return getList[mapper.AppointmentRecord](ctx, c, PathAppointments, query)
}

// CreateAppointment schedules an appointment.
func (c *Client) CreateAppointment(ctx context.Context, p mapper.AppointmentPayload) (mapper.AppointmentRecord, error) {
	var out mapper.AppointmentRecord
	err := c.Post(ctx, PathAppointments, p, &out)
	return out, err
}

// UpdateAppointment patches an appointment, typically its status or date.
func (c *Client) UpdateAppointment(ctx context.Context, id int, fields map[string]any) (mapper.AppointmentRecord, error) {
	var out mapper.AppointmentRecord
	err := c.Patch(ctx, item(PathAppointments, id), fields, &out)
	return out, err
}

// ListAlerts lists alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]mapper.AlertRecord, error) {
	return getList[mapper.AlertRecord](ctx, c, PathAlerts, nil)
}

// CreateAlert creates an alert for the patient with the payload's CPF.
func (c *Client) CreateAlert(ctx context.Context, p mapper.AlertPayload) (mapper.AlertRecord, error) {
	var out mapper.AlertRecord
	err := c.Post(ctx, PathAlerts, p, &out)
	return out, err
}

// DeleteAlert soft-deletes an alert.
func (c *Client) DeleteAlert(ctx context.Context, id int) error {
	return c.Delete(ctx, item(PathAlerts, id))
}
