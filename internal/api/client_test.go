package api_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/api/apitest"
	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/schema"
)

func newClient(t *testing.T, srv *apitest.Server, tokens api.TokenSource) *api.Client {
	t.Helper()
	return api.New(api.Options{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Metrics: api.NewMetrics(prometheus.NewRegistry()),
	}, tokens, nil)
}

func TestBearerAndRequestID(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	tokens := srv.LoggedIn()
	c := newClient(t, srv, tokens)

	_, err := c.ListPatients(context.Background(), "")
	require.NoError(t, err)

	reqs := srv.Calls(http.MethodGet, api.PathPatients)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+tokens.AccessToken(), reqs[0].Auth)
	assert.Len(t, reqs[0].RequestID, 36)
}

func TestRefreshAndRetryOnce(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	tokens := srv.LoggedIn()
	c := newClient(t, srv, tokens)
	srv.Seed(apitest.Patients, apitest.Object{"cpf": "12345678901"})

	srv.ExpireAccess()
	got, err := c.ListPatients(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, srv.Refreshes())

	access, _ := srv.Tokens()
	assert.Equal(t, access, tokens.AccessToken())
	assert.Len(t, srv.Calls(http.MethodGet, api.PathPatients), 2)
}

func TestRefreshFailureClearsTokens(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	tokens := srv.LoggedIn()
	c := newClient(t, srv, tokens)

	srv.ExpireAccess()
	srv.RevokeRefresh()
	_, err := c.ListPatients(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 1, tokens.Cleared())
	assert.Empty(t, tokens.RefreshToken())
	assert.Len(t, srv.Calls(http.MethodGet, api.PathPatients), 1, "no retry without a new token")
}

func TestNoRefreshOnAuthPaths(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv, srv.LoggedIn())

	_, err := c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "No active account found with the given credentials", apperr.Message(err))
	assert.Empty(t, srv.Calls(http.MethodPost, api.PathTokenRefresh))
}

func TestLoginDefaultMessage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Fail(http.MethodPost, api.PathToken, http.StatusBadRequest, `{"non_field_errors":["x"]}`)
	c := newClient(t, srv, nil)

	_, err := c.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	assert.Equal(t, api.DefaultLoginError, apperr.Message(err))
}

func TestConcurrentRefreshIsShared(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	tokens := srv.LoggedIn()
	c := newClient(t, srv, tokens)
	srv.ExpireAccess()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	// Late callers may see the new token before the first 401 lands, but
	// the refresh itself is never stampeded.
	assert.LessOrEqual(t, srv.Refreshes(), 2)
}

func TestDecodeListShapes(t *testing.T) {
	type rec struct {
		ID int `json:"id"`
	}
	bare, err := api.DecodeList[rec]([]byte(`[{"id":1},{"id":2}]`))
	require.NoError(t, err)
	assert.Len(t, bare, 2)

	env, err := api.DecodeList[rec]([]byte(`{"count":1,"next":null,"results":[{"id":3}]}`))
	require.NoError(t, err)
	require.Len(t, env, 1)
	assert.Equal(t, 3, env[0].ID)

	empty, err := api.DecodeList[rec]([]byte(` null `))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = api.DecodeList[rec]([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestEnvelopeListsAndPatientFilter(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Envelope = true
	srv.Seed(apitest.HAS, apitest.Object{"patient": 7})
	srv.Seed(apitest.HAS, apitest.Object{"patient": 8})
	c := newClient(t, srv, srv.LoggedIn())

	got, err := c.ListHAS(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Patient)
	assert.Equal(t, "7", srv.Calls(http.MethodGet, api.PathHAS)[0].Query.Get("patient"))
}

func TestAPIErrorsMapToSentinels(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv, srv.LoggedIn())

	_, err := c.GetPatient(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Not found.", apperr.Message(err))

	srv.FailOnce(http.MethodPost, api.PathAddress, http.StatusInternalServerError, ``)
	_, err = c.CreateAddress(context.Background(), mapper.AddressPayload{UF: "PB"})
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, "HTTP 500", apperr.Message(err))
}

func TestDuplicateCPF(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv, srv.LoggedIn())

	f := form.New()
	f.Socio.Nome = "Maria Silva"
	f.Socio.SusCPF = "12345678901"
	p := mapper.PatientToAPI(f, schema.Create, nil, time.Now())

	created, err := c.CreatePatient(context.Background(), p)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "12345678901", created.User.Username)

	_, err = c.CreatePatient(context.Background(), p)
	require.Error(t, err)
	assert.True(t, apperr.IsDuplicateCPF(err))
}

func TestNetworkError(t *testing.T) {
	srv := apitest.New()
	url := srv.URL
	srv.Close()

	c := api.New(api.Options{BaseURL: url, Timeout: time.Second, Metrics: api.NewMetrics(prometheus.NewRegistry())}, nil, nil)
	_, err := c.ListInstitutions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Equal(t, "Falha de comunicação com o servidor.", apperr.Message(err))
}

func TestCancelledContext(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv, srv.LoggedIn())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListPatients(ctx, "")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPasswordReset(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv, nil)
	ctx := context.Background()

	msg, err := c.RequestPasswordReset(ctx, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	v, err := c.ValidateResetToken(ctx, "reset-token")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "admin", v.Username)

	_, err = c.ConfirmPasswordReset(ctx, "reset-token", "nova123", "outra")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = c.ConfirmPasswordReset(ctx, "reset-token", "nova123", "nova123")
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin", "nova123")
	assert.NoError(t, err)
}

func TestMetricsCountRequests(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	reg := prometheus.NewRegistry()
	c := api.New(api.Options{BaseURL: srv.URL, Metrics: api.NewMetrics(reg)}, srv.LoggedIn(), nil)

	_, err := c.GetPatient(context.Background(), 404)
	require.Error(t, err)
	_, err = c.ListAlerts(context.Background())
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "rastreia_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
