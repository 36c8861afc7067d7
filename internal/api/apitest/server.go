// Package apitest provides an in-memory Rastreia+ backend for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/rastreiamais/rastreia/internal/api"
)

// Collection names a CRUD resource served by the fake.
type Collection string

const (
	Patients      Collection = "patients"
	Professionals Collection = "professionals"
	HAS           Collection = "has"
	DM            Collection = "dm"
	Addresses     Collection = "address"
	Institutions  Collection = "institutions"
	Appointments  Collection = "appointments"
	Alerts        Collection = "alerts"
)

var collectionPaths = map[Collection]string{
	Patients:      api.PathPatients,
	Professionals: api.PathProfessionals,
	HAS:           api.PathHAS,
	DM:            api.PathDM,
	Addresses:     api.PathAddress,
	Institutions:  api.PathInstitutions,
	Appointments:  api.PathAppointments,
	Alerts:        api.PathAlerts,
}

// Object is a stored JSON object.
type Object = map[string]any

// Request is a recorded incoming request.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      []byte
	Auth      string
	RequestID string
}

// JSON decodes the recorded body.
func (r Request) JSON() Object {
	var o Object
	_ = json.Unmarshal(r.Body, &o)
	return o
}

type failure struct {
	method string
	path   string
	status int
	body   string
	times  int // <0 means forever
}

// Server is a fake backend. The zero configuration accepts user "admin" with
// password "secret" and serves lists as bare arrays.
type Server struct {
	*httptest.Server

	// Envelope serves list endpoints as {"count", "next", "results"}.
	Envelope bool
	// IgnorePatientFilter makes list endpoints ignore ?patient=, like a
	// backend without the filter installed.
	IgnorePatientFilter bool
	// Me is returned by /api/auth/me.
	Me api.Me

	mu        sync.Mutex
	requests  []Request
	store     map[Collection]map[int]Object
	nextID    int
	users     map[string]string
	access    string
	valid     map[string]bool
	refresh   string
	issued    int
	failures  []*failure
	resetTok  string
	refreshes int
}

// New starts a fake backend. Call Close when done.
func New() *Server {
	s := &Server{
		store:    make(map[Collection]map[int]Object),
		users:    map[string]string{"admin": "secret"},
		valid:    make(map[string]bool),
		refresh:  "refresh-0",
		resetTok: "reset-token",
		nextID:   1,
		Me: api.Me{
			User:  api.MeUser{ID: 1, Username: "admin", FirstName: "Ana", LastName: "Souza"},
			Roles: []api.Role{api.RoleProfessional},
		},
	}
	for c := range collectionPaths {
		s.store[c] = make(map[int]Object)
	}
	s.access = s.issue()
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.inject)

	r.Post(api.PathToken, s.handleToken)
	r.Post(api.PathTokenRefresh, s.handleRefresh)
	r.Post(api.PathResetRequest, s.handleResetRequest)
	r.Post(api.PathResetValidate, s.handleResetValidate)
	r.Post(api.PathResetConfirm, s.handleResetConfirm)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get(api.PathMe, func(w http.ResponseWriter, _ *http.Request) {
			s.mu.Lock()
			me := s.Me
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, me)
		})
		r.Post(api.PathLogout, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusResetContent)
		})
		for c, path := range collectionPaths {
			s.mount(r, c, path)
		}
	})
	return r
}

func (s *Server) mount(r chi.Router, c Collection, path string) {
	r.Route(strings.TrimSuffix(path, "/"), func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) { s.handleList(w, req, c) })
		r.Post("/", func(w http.ResponseWriter, req *http.Request) { s.handleCreate(w, req, c) })
		r.Get("/{id}/", func(w http.ResponseWriter, req *http.Request) { s.handleGet(w, req, c) })
		r.Patch("/{id}/", func(w http.ResponseWriter, req *http.Request) { s.handlePatch(w, req, c) })
		r.Delete("/{id}/", func(w http.ResponseWriter, req *http.Request) { s.handleDelete(w, req, c) })
	})
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// AddUser registers login credentials.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// Tokens returns the currently valid access and refresh tokens.
func (s *Server) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh
}

// ExpireAccess invalidates every access token issued so far so the next
// call gets a 401 and must refresh.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = make(map[string]bool)
}

// RevokeRefresh makes refresh attempts fail.
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = "revoked"
}

// Refreshes counts successful token refreshes.
func (s *Server) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// Fail makes every request matching method and path (exact, or prefix when
// path ends with "*") answer status with body.
func (s *Server) Fail(method, path string, status int, body string) {
	s.addFailure(method, path, status, body, -1)
}

// FailOnce is Fail for a single matching request.
func (s *Server) FailOnce(method, path string, status int, body string) {
	s.addFailure(method, path, status, body, 1)
}

func (s *Server) addFailure(method, path string, status int, body string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &failure{method: method, path: path, status: status, body: body, times: times})
}

// Seed stores obj in c and returns its id.
func (s *Server) Seed(c Collection, obj Object) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(c, obj)
}

// SeedAt stores obj in c under a fixed id.
func (s *Server) SeedAt(c Collection, id int, obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := clone(obj)
	if o == nil {
		o = Object{}
	}
	o["id"] = id
	s.store[c][id] = o
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// Get returns a stored object.
func (s *Server) Get(c Collection, id int) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.store[c][id]
	return clone(o), ok
}

// All returns every stored object of c ordered by id.
func (s *Server) All(c Collection) []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(c)
}

// Requests returns the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls returns the recorded requests matching method and path prefix.
func (s *Server) Calls(method, pathPrefix string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			out = append(out, r)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.Query(),
			Body:      body,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var hit *failure
		for _, f := range s.failures {
			if f.times == 0 || f.method != r.Method || !matchPath(f.path, r.URL.Path) {
				continue
			}
			if f.times > 0 {
				f.times--
			}
			hit = f
			break
		}
		s.mu.Unlock()
		if hit != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(hit.status)
			_, _ = io.WriteString(w, hit.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func matchPath(pattern, path string) bool {
	if p, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, p)
	}
	return pattern == path
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := s.valid[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, Object{"detail": "Given token not valid for any token type"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Auth handlers
// ---------------------------------------------------------------------------

// issue mints a new access token. Callers hold s.mu or run before serving.
func (s *Server) issue() string {
	s.issued++
	tok := "access-" + strconv.Itoa(s.issued)
	s.valid[tok] = true
	return tok
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[in.Username]; !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, Object{"detail": "No active account found with the given credentials"})
		return
	}
	s.access = s.issue()
	s.refresh = "refresh-" + strconv.Itoa(s.issued)
	writeJSON(w, http.StatusOK, api.TokenPair{Access: s.access, Refresh: s.refresh})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Refresh == "" || in.Refresh != s.refresh {
		writeJSON(w, http.StatusUnauthorized, Object{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	s.access = s.issue()
	s.refreshes++
	writeJSON(w, http.StatusOK, Object{"access": s.access})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Object{"message": "Se o usuário existir, um e-mail foi enviado."})
}

func (s *Server) handleResetValidate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	ok := in.Token == s.resetTok
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, api.ResetValidation{Valid: false, Message: "Token inválido ou expirado."})
		return
	}
	writeJSON(w, http.StatusOK, api.ResetValidation{Valid: true, Email: "admin@example.org", Username: "admin"})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Password == "" || in.Password != in.PasswordConfirm {
		writeJSON(w, http.StatusBadRequest, Object{"password_confirm": []string{"As senhas não coincidem."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Token != s.resetTok {
		writeJSON(w, http.StatusBadRequest, Object{"detail": "Token inválido ou expirado."})
		return
	}
	s.users["admin"] = in.Password
	s.resetTok = ""
	writeJSON(w, http.StatusOK, Object{"message": "Senha redefinida com sucesso."})
}

// ---------------------------------------------------------------------------
// CRUD handlers
// ---------------------------------------------------------------------------

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, c Collection) {
	s.mu.Lock()
	items := s.sorted(c)
	filter := !s.IgnorePatientFilter
	envelope := s.Envelope
	s.mu.Unlock()

	if p := r.URL.Query().Get("patient"); p != "" && filter {
		items = filterBy(items, func(o Object) bool { return idOf(o["patient"]) == atoi(p) })
	}
	if q := strings.ToLower(r.URL.Query().Get("search")); q != "" {
		items = filterBy(items, func(o Object) bool {
			raw, _ := json.Marshal(o)
			return strings.Contains(strings.ToLower(string(raw)), q)
		})
	}
	if items == nil {
		items = []Object{}
	}
	if envelope {
		writeJSON(w, http.StatusOK, Object{"count": len(items), "next": nil, "previous": nil, "results": items})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, c Collection) {
	id := atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	o, ok := s.store[c][id]
	o = clone(o)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, Object{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, c Collection) {
	var in Object
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, Object{"detail": "JSON parse error - " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c == Patients {
		if cpf, _ := in["cpf"].(string); cpf != "" {
			for _, o := range s.store[Patients] {
				if o["cpf"] == cpf {
					writeJSON(w, http.StatusBadRequest, Object{"cpf": []string{"patient user with this cpf already exists."}})
					return
				}
			}
		}
		if u, ok := in["user"].(map[string]any); ok {
			delete(u, "password")
			u["id"] = s.nextID + 1000
		}
	}
	if c == Alerts {
		// the backend resolves the patient from the write-only cpf
		cpf, _ := in["cpf"].(string)
		delete(in, "cpf")
		for _, o := range s.sorted(Patients) {
			if o["cpf"] == cpf {
				in["patient"] = o
			}
		}
	}
	id := s.insert(c, in)
	writeJSON(w, http.StatusCreated, s.store[c][id])
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request, c Collection) {
	id := atoi(chi.URLParam(r, "id"))
	var in Object
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, Object{"detail": "JSON parse error - " + err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.store[c][id]
	if !ok {
		writeJSON(w, http.StatusNotFound, Object{"detail": "Not found."})
		return
	}
	for k, v := range in {
		if k == "user" {
			continue
		}
		o[k] = v
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, c Collection) {
	id := atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store[c][id]; !ok {
		writeJSON(w, http.StatusNotFound, Object{"detail": "Not found."})
		return
	}
	delete(s.store[c], id)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// insert stores obj under a fresh id. Callers hold s.mu.
func (s *Server) insert(c Collection, obj Object) int {
	id := s.nextID
	s.nextID++
	o := clone(obj)
	if o == nil {
		o = Object{}
	}
	o["id"] = id
	s.store[c][id] = o
	return id
}

// sorted returns copies ordered by id. Callers hold s.mu.
func (s *Server) sorted(c Collection) []Object {
	ids := make([]int, 0, len(s.store[c]))
	for id := range s.store[c] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Object, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.store[c][id]))
	}
	return out
}

func filterBy(items []Object, keep func(Object) bool) []Object {
	var out []Object
	for _, o := range items {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func clone(o Object) Object {
	if o == nil {
		return nil
	}
	raw, _ := json.Marshal(o)
	var c Object
	_ = json.Unmarshal(raw, &c)
	return c
}

// idOf reads a numeric id from a bare number or a nested {"id": n}.
func idOf(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		return atoi(t)
	case map[string]any:
		return idOf(t["id"])
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("apitest: encoding response: %v", err))
	}
}
