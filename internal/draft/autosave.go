package draft

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/form"
)

// DefaultDebounce is the delay between the last change and the write.
const DefaultDebounce = time.Second

// Autosaver writes the wizard state some time after the last change. Only
// one timer is live: every Touch cancels and reschedules it. Save errors are
// logged and never reach the caller of Touch.
type Autosaver struct {
	store   Store
	uid     string
	delay   time.Duration
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	pending *Draft
	seq     uint64
	stopped bool

	saveMu    sync.Mutex
	savedSeq  uint64
	lastError error
}

// AutosaverOption customises an Autosaver.
type AutosaverOption func(*Autosaver)

// WithMetrics counts saves on m.
func WithMetrics(m *Metrics) AutosaverOption {
	return func(a *Autosaver) { a.metrics = m }
}

// WithClock overrides the SavedAt clock.
func WithClock(now func() time.Time) AutosaverOption {
	return func(a *Autosaver) { a.now = now }
}

// NewAutosaver saves uid's draft to store delay after the last Touch.
func NewAutosaver(store Store, uid string, delay time.Duration, log *zap.Logger, opts ...AutosaverOption) *Autosaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	a := &Autosaver{
		store: store,
		uid:   uid,
		delay: delay,
		log:   log.Named("draft"),
		now:   time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Touch records a change and (re)starts the timer.
func (a *Autosaver) Touch(step int, f form.FormState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.seq++
	a.pending = &Draft{UID: a.uid, Step: step, Form: f}
	if a.timer != nil {
		a.timer.Stop()
	}
	seq := a.seq
	a.timer = time.AfterFunc(a.delay, func() { a.fire(seq) })
}

func (a *Autosaver) fire(seq uint64) {
	a.mu.Lock()
	if a.seq != seq || a.pending == nil {
		a.mu.Unlock()
		return
	}
	d := a.pending
	a.pending = nil
	a.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.save(ctx, seq, *d)
}

// Flush writes a pending change immediately.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	d, seq := a.pending, a.seq
	a.pending = nil
	a.mu.Unlock()

	if d == nil {
		return nil
	}
	return a.save(ctx, seq, *d)
}

// Stop flushes and ignores further changes.
func (a *Autosaver) Stop(ctx context.Context) error {
	err := a.Flush(ctx)
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
	return err
}

// Discard drops any pending change, stops the saver and deletes the stored
// draft. Called after a successful create.
func (a *Autosaver) Discard(ctx context.Context) error {
	return a.drop(ctx, true)
}

// Reset deletes the stored draft and drops any pending change but keeps
// saving later changes. Called when the user cancels the draft and starts
// over in the same wizard.
func (a *Autosaver) Reset(ctx context.Context) error {
	return a.drop(ctx, false)
}

func (a *Autosaver) drop(ctx context.Context, stop bool) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
	if stop {
		a.stopped = true
	}
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	a.savedSeq = seq
	return a.store.Delete(ctx, a.uid)
}

// LastError returns the error of the most recent save, if any.
func (a *Autosaver) LastError() error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	return a.lastError
}

// save writes d unless a newer snapshot was already written.
func (a *Autosaver) save(ctx context.Context, seq uint64, d Draft) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if seq <= a.savedSeq {
		return nil
	}
	d.SavedAt = a.now()
	err := a.store.Save(ctx, d)
	a.metrics.saved(err)
	a.lastError = err
	if err != nil {
		a.log.Warn("autosave failed", zap.String("uid", a.uid), zap.Error(err))
		return err
	}
	a.savedSeq = seq
	a.log.Debug("draft saved", zap.String("uid", a.uid), zap.Int("step", d.Step))
	return nil
}
