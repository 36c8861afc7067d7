package submit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/mapper"
)

// LoadBackend is the part of the API client edit-mode hydration needs.
type LoadBackend interface {
	GetPatient(ctx context.Context, id int) (mapper.PatientRecord, error)
	GetAddress(ctx context.Context, id int) (mapper.AddressRecord, error)
	ListHAS(ctx context.Context, patientID int) ([]mapper.HASRecord, error)
	ListDM(ctx context.Context, patientID int) ([]mapper.DMRecord, error)
}

// Loaded is a form ready for editing plus the ids an edit updates.
type Loaded struct {
	Form    form.FormState
	Target  Target
	Patient mapper.PatientRecord
}

// Loader hydrates a patient for editing.
type Loader struct {
	API LoadBackend
	Log *zap.Logger
}

func NewLoader(b LoadBackend, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{API: b, Log: log.Named("loader")}
}

// Load fetches the patient, its address and its condition cases. A failed
// address fetch is logged and ignored. If ctx is done before the result is
// assembled, nothing is returned but the context error.
func (l *Loader) Load(ctx context.Context, patientID int) (Loaded, error) {
	rec, err := l.API.GetPatient(ctx, patientID)
	if err != nil {
		return Loaded{}, fmt.Errorf("loading patient %d: %w", patientID, err)
	}

	if rec.AddressRecord() == nil && rec.Address.ID != nil {
		addr, err := l.API.GetAddress(ctx, *rec.Address.ID)
		if err != nil {
			l.Log.Warn("loading address failed", zap.Int("address_id", *rec.Address.ID), zap.Error(err))
		} else {
			rec.AddressObj = &addr
		}
	}

	var (
		hasList []mapper.HASRecord
		dmList  []mapper.DMRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hasList, err = l.API.ListHAS(gctx, patientID)
		if err != nil {
			return fmt.Errorf("loading HAS cases: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dmList, err = l.API.ListDM(gctx, patientID)
		if err != nil {
			return fmt.Errorf("loading DM cases: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Loaded{}, err
	}

	f := mapper.PatientFromAPI(rec)
	t := Target{PatientID: patientID}

	// the backend filter may be missing; match by patient id here
	for _, h := range hasList {
		if h.Patient == patientID {
			id := h.ID
			t.HASID = &id
			f.Condicoes.HAS = true
			f.Clinica.HAS = mapper.HASFromAPI(h)
			break
		}
	}
	for _, d := range dmList {
		if d.Patient == patientID {
			id := d.ID
			t.DMID = &id
			f.Condicoes.DM = true
			f.Clinica.DM = mapper.DMFromAPI(d)
			break
		}
	}
	f = mapper.ApplyLifestyle(f, rec)
	f = form.Reconcile(f, true)

	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}
	return Loaded{Form: f, Target: t, Patient: rec}, nil
}
