package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/form"
)

func sample(uid, nome string, at time.Time) Draft {
	f := form.New()
	f.Socio.Nome = nome
	f.Socio.SusCPF = "12345678901"
	f = form.SetCondition(f, form.CondHAS, true)
	return Draft{UID: uid, SavedAt: at, Step: 2, Form: f}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rastreia:paciente:draft:42", Key("42"))
	assert.Equal(t, "rastreia:paciente:draft:anon", Key(""))
	assert.Equal(t, "paciente-draft-a_b.json", fileName("a:b"))
}

func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "7")
	assert.ErrorIs(t, err, ErrNoDraft)

	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, sample("7", "Maria Silva", t0)))
	require.NoError(t, s.Save(ctx, sample("8", "João Souza", t0.Add(time.Hour))))

	got, err := s.Load(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", got.Form.Socio.Nome)
	assert.Equal(t, 2, got.Step)
	require.NotNil(t, got.Form.Clinica.HAS)
	assert.Equal(t, "Maria S.", got.Title())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "8", list[0].UID, "newest first")

	require.NoError(t, s.Delete(ctx, "7"))
	require.NoError(t, s.Delete(ctx, "7"), "deleting twice is fine")
	_, err = s.Load(ctx, "7")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "drafts"))
	require.NoError(t, err)
	storeContract(t, s)
}

func TestFileStoreSkipsForeignAndMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paciente-draft-bad.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, s.Save(context.Background(), sample("1", "Ana", time.Now())))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, time.Hour)
	require.NoError(t, s.Ping(context.Background()))
	storeContract(t, s)

	require.NoError(t, s.Save(context.Background(), sample("9", "Ana", time.Now())))
	assert.Equal(t, time.Hour, mr.TTL(Key("9")))
	mr.FastForward(2 * time.Hour)
	_, err := s.Load(context.Background(), "9")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(config.DraftConfig{Backend: config.BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(config.DraftConfig{Backend: config.BackendRedis, RedisAddr: "localhost:0"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = Open(config.DraftConfig{Backend: "s3"})
	assert.Error(t, err)
}

// recordingStore counts saves and can fail on demand.
type recordingStore struct {
	mu    sync.Mutex
	saves []Draft
	fail  error
	Store
}

func (r *recordingStore) Save(ctx context.Context, d Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saves = append(r.saves, d)
	return r.Store.Save(ctx, d)
}

func (r *recordingStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func newRecording(t *testing.T) *recordingStore {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return &recordingStore{Store: fs}
}

func TestAutosaverDebounces(t *testing.T) {
	rs := newRecording(t)
	m := NewMetrics(prometheus.NewRegistry())
	a := NewAutosaver(rs, "5", 30*time.Millisecond, nil, WithMetrics(m))

	f := form.New()
	for i := 0; i < 10; i++ {
		f.Socio.Nome = "Maria" + string(rune('a'+i))
		a.Touch(0, f)
		time.Sleep(2 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return rs.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rs.count(), "a burst of changes is one write")

	got, err := rs.Load(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "Mariaj", got.Form.Socio.Nome)
	assert.False(t, got.SavedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("ok")))
}

func TestAutosaverFlushAndStop(t *testing.T) {
	rs := newRecording(t)
	a := NewAutosaver(rs, "5", time.Hour, nil)

	require.NoError(t, a.Flush(context.Background()), "nothing pending")
	a.Touch(1, form.New())
	require.NoError(t, a.Stop(context.Background()))
	assert.Equal(t, 1, rs.count())

	a.Touch(2, form.New())
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, 1, rs.count(), "stopped saver ignores changes")
}

func TestAutosaverDiscardDeletes(t *testing.T) {
	rs := newRecording(t)
	ctx := context.Background()
	require.NoError(t, rs.Store.Save(ctx, sample("5", "Ana", time.Now())))

	a := NewAutosaver(rs, "5", 10*time.Millisecond, nil)
	a.Touch(3, form.New())
	require.NoError(t, a.Discard(ctx))
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, 0, rs.count())
	_, err := rs.Load(ctx, "5")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestAutosaverResetKeepsSaving(t *testing.T) {
	rs := newRecording(t)
	ctx := context.Background()

	a := NewAutosaver(rs, "7", 10*time.Millisecond, nil)
	a.Touch(1, form.New())
	require.NoError(t, a.Reset(ctx))
	_, err := rs.Load(ctx, "7")
	assert.ErrorIs(t, err, ErrNoDraft)

	f := form.New()
	f.Socio.Nome = "Joana Souza"
	a.Touch(0, f)
	require.Eventually(t, func() bool { return rs.count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, a.Stop(ctx))

	d, err := rs.Load(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Joana Souza", d.Form.Socio.Nome)
}

func TestAutosaverErrorsAreKept(t *testing.T) {
	rs := newRecording(t)
	rs.fail = errors.New("disk full")
	a := NewAutosaver(rs, "5", time.Hour, nil)
	a.Touch(0, form.New())
	assert.Error(t, a.Flush(context.Background()))
	assert.EqualError(t, a.LastError(), "disk full")
}

func TestWatcherCoalescesAndSkipsTemp(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	w, err := NewWatcher(dir, 50*time.Millisecond, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Watch(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, sample("11", "Ana", time.Now())))
	}

	select {
	case ev := <-events:
		assert.Equal(t, "11", ev.UID)
		assert.Equal(t, EventSaved, ev.Type)
		require.NotNil(t, ev.Draft)
		assert.Equal(t, "Ana", ev.Draft.Form.Socio.Nome)
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	require.NoError(t, s.Delete(ctx, "11"))
	select {
	case ev := <-events:
		assert.Equal(t, "11", ev.UID)
		assert.Equal(t, EventRemoved, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no removal event")
	}
}
