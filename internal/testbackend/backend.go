// Package testbackend provides an in-memory implementation of the audit
// backend REST API, served over httptest for client and store tests.
package testbackend

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/sirupsen/logrus"
)

// CSRFCookie is the cookie the backend issues its CSRF token in.
const CSRFCookie = "csrftoken"

// CSRFHeader is the header mutating requests must echo the token in.
const CSRFHeader = "X-CSRFTOKEN"

// Request is a request received by the backend.
type Request struct {
	Method string
	Path   string
	CSRF   string
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Backend is an in-memory audit backend.
type Backend struct {
	mu       sync.Mutex
	accounts []models.Account
	catalog  []models.CheckMetadata
	settings models.AppSettings
	suites   map[int64]*models.Suite

	nextSuiteID int64
	nextCheckID int64
	nextExecID  int64

	csrfToken   string
	enforceCSRF bool
	failures    map[string]failure
	delays      map[string]time.Duration
	outcomes    map[string]bool
	requests    []Request
	now         func() time.Time

	server *httptest.Server
	logger *logrus.Entry
}

// Option configures a Backend.
type Option func(*Backend)

// WithCatalog replaces the check catalog.
func WithCatalog(catalog []models.CheckMetadata) Option {
	return func(b *Backend) {
		b.catalog = catalog
	}
}

// WithAccounts replaces the account hierarchy.
func WithAccounts(accounts []models.Account) Option {
	return func(b *Backend) {
		b.accounts = accounts
	}
}

// WithSettings replaces the app settings.
func WithSettings(settings models.AppSettings) Option {
	return func(b *Backend) {
		b.settings = settings
	}
}

// WithoutCSRF disables CSRF enforcement on mutating requests.
func WithoutCSRF() Option {
	return func(b *Backend) {
		b.enforceCSRF = false
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New creates a Backend with the default fixtures and starts serving it. The
// server stops when Close is called.
func New(opts ...Option) *Backend {
	b := &Backend{
		accounts:    DefaultAccounts(),
		catalog:     DefaultCatalog(),
		settings:    DefaultSettings(),
		suites:      make(map[int64]*models.Suite),
		csrfToken:   newToken(),
		enforceCSRF: true,
		failures:    make(map[string]failure),
		delays:      make(map[string]time.Duration),
		outcomes:    make(map[string]bool),
		now:         time.Now,
		logger:      logging.NewLogger("dqm-testbackend"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.server = httptest.NewServer(b.Handler())
	return b
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "static-test-token"
	}
	return hex.EncodeToString(buf)
}

// URL returns the base URL of the running server.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close stops the server.
func (b *Backend) Close() {
	b.server.Close()
}

// CSRFToken returns the token issued in the CSRF cookie.
func (b *Backend) CSRFToken() string {
	return b.csrfToken
}

// Fail makes every request matching method and path answer with status and
// body until ClearFailures is called.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, body: body}
}

// Delay holds every request matching method and path for d before it is
// answered. A request whose client gives up earlier gets no answer.
func (b *Backend) Delay(method, path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[method+" "+path] = d
}

// ClearFailures removes every injected failure and delay.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = make(map[string]failure)
	b.delays = make(map[string]time.Duration)
}

// SetOutcome fixes the success of every future execution of the named check
// type. Checks without an outcome succeed.
func (b *Backend) SetOutcome(checkName string, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcomes[checkName] = success
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}, false
	}
	return b.requests[len(b.requests)-1], true
}

// Suite returns a copy of a stored suite.
func (b *Backend) Suite(id int64) (models.Suite, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.suites[id]
	if !ok {
		return models.Suite{}, false
	}
	return s.Clone(), true
}

// SuiteCount returns the number of stored suites.
func (b *Backend) SuiteCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.suites)
}

// Handler returns the HTTP handler implementing the API.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", b.handleIndex)
	mux.HandleFunc("GET /api/cache", b.handleCache)
	mux.HandleFunc("GET /api/gaaccounts", b.handleAccounts)
	mux.HandleFunc("GET /api/checks", b.handleChecks)
	mux.HandleFunc("GET /api/checks/stats", b.handleChecksStats)
	mux.HandleFunc("GET /api/appsettings", b.handleAppSettings)

	mux.HandleFunc("GET /api/suites/{$}", b.handleListSuites)
	mux.HandleFunc("POST /api/suites/{$}", b.handleCreateSuite)
	mux.HandleFunc("GET /api/suites/stats", b.handleSuitesStats)
	mux.HandleFunc("GET /api/suites/{id}", b.handleGetSuite)
	mux.HandleFunc("PUT /api/suites/{id}", b.handleUpdateSuite)
	mux.HandleFunc("DELETE /api/suites/{id}", b.handleDeleteSuite)
	mux.HandleFunc("POST /api/suites/{id}/checks", b.handleCreateCheck)
	mux.HandleFunc("PUT /api/suites/{id}/checks/{checkId}", b.handleUpdateCheck)
	mux.HandleFunc("DELETE /api/suites/{id}/checks/{checkId}", b.handleDeleteCheck)
	mux.HandleFunc("POST /api/suites/{id}/run", b.handleRun)

	return b.middleware(mux)
}

// middleware records requests, issues the CSRF cookie, enforces it on
// mutating requests and applies injected failures.
func (b *Backend) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			CSRF:   r.Header.Get(CSRFHeader),
			Body:   body,
		})
		fail, failing := b.failures[r.Method+" "+r.URL.Path]
		delay := b.delays[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.Context().Done():
				return
			}
		}

		b.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("Test backend request")

		if r.Method == http.MethodGet {
			if c, err := r.Cookie(CSRFCookie); err != nil || c.Value != b.csrfToken {
				http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: b.csrfToken, Path: "/"})
			}
		} else if b.enforceCSRF && !b.validCSRF(r) {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}

		if failing {
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) validCSRF(r *http.Request) bool {
	c, err := r.Cookie(CSRFCookie)
	if err != nil || c.Value != b.csrfToken {
		return false
	}
	return r.Header.Get(CSRFHeader) == b.csrfToken
}

func (b *Backend) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<!doctype html><title>dqm</title>"))
}

func (b *Backend) handleCache(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cache": map[string]interface{}{"gaAccounts": b.accounts},
	})
}

func (b *Backend) handleAccounts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"gaAccounts": b.accounts})
}

func (b *Backend) handleChecks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"checksMetadata": b.catalog})
}

func (b *Backend) handleAppSettings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"appSettings": b.settings})
}

func (b *Backend) handleListSuites(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	previews := make([]models.SuitePreview, 0, len(b.suites))
	for _, s := range b.sortedSuites() {
		p := models.SuitePreview{
			ID:      models.Int64Ptr(*s.ID),
			Name:    s.Name,
			Created: s.Created,
			Updated: s.Updated,
		}
		if last, ok := s.LastExecution(); ok {
			p.LastExecutionSuccess = last.Success
		}
		previews = append(previews, p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suites": previews})
}

func (b *Backend) handleCreateSuite(w http.ResponseWriter, r *http.Request) {
	var params models.SuiteCreationData
	if !decodeBody(w, r, &params) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSuiteID++
	now := models.Timestamp{Time: b.now()}
	s := models.NewSuite()
	s.ID = models.Int64Ptr(b.nextSuiteID)
	s.Name = params.Name
	s.Created = now
	s.Updated = now
	if params.TemplateID != "" {
		for _, meta := range b.catalog {
			if meta.Theme == params.TemplateID {
				s.Checks = append(s.Checks, b.newCheck(meta))
			}
		}
	}
	b.suites[*s.ID] = &s
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": *s.ID})
}

func (b *Backend) handleGetSuite(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suite": encodeSuite(*s)})
}

func (b *Backend) handleUpdateSuite(w http.ResponseWriter, r *http.Request) {
	var in models.Suite
	if !decodeBody(w, r, &in) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	s.Name = in.Name
	s.GaParams = in.GaParams.Clone()
	s.Updated = models.Timestamp{Time: b.now()}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (b *Backend) handleDeleteSuite(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	delete(b.suites, *s.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (b *Backend) handleCreateCheck(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	meta, ok := models.FindCheckMetadata(b.catalog, in.Name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "unknown check: " + in.Name})
		return
	}
	check := b.newCheck(meta)
	s.Checks = append(s.Checks, check)
	writeJSON(w, http.StatusOK, map[string]interface{}{"check": check})
}

func (b *Backend) handleUpdateCheck(w http.ResponseWriter, r *http.Request) {
	var in models.Check
	if !decodeBody(w, r, &in) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	idx, ok := lookupCheck(w, r, s)
	if !ok {
		return
	}
	c := &s.Checks[idx]
	c.Active = in.Active
	c.Comments = in.Comments
	c.ParamValues = models.CloneValues(in.ParamValues)
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (b *Backend) handleDeleteCheck(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	idx, ok := lookupCheck(w, r, s)
	if !ok {
		return
	}
	s.Checks = append(s.Checks[:idx], s.Checks[idx+1:]...)
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (b *Backend) handleRun(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lookupSuite(w, r)
	if !ok {
		return
	}
	exec := b.execute(s)
	s.Executions = append(s.Executions, exec)
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": exec})
}

func (b *Backend) handleChecksStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	days := make(map[string]*models.DailyStat)
	for _, s := range b.suites {
		for _, e := range s.Executions {
			for _, ce := range e.CheckExecutions {
				addStat(days, e.Executed, ce.Success)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": sortStats(days)})
}

func (b *Backend) handleSuitesStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	days := make(map[string]*models.DailyStat)
	for _, s := range b.suites {
		for _, e := range s.Executions {
			addStat(days, e.Executed, e.Success)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": sortStats(days)})
}

// newCheck creates an active check of the given type with default values.
// The caller holds the lock.
func (b *Backend) newCheck(meta models.CheckMetadata) models.Check {
	b.nextCheckID++
	values := make(map[string]models.Value, len(meta.Parameters))
	for _, p := range meta.Parameters {
		values[p.Name] = p.Default.Clone()
	}
	return models.Check{
		ID:            b.nextCheckID,
		Name:          meta.Name,
		Active:        true,
		CheckMetadata: meta,
		ParamValues:   values,
	}
}

// execute runs every active check of s. Delegated parameters are filled from
// the suite's GA parameters. The caller holds the lock.
func (b *Backend) execute(s *models.Suite) models.SuiteExecution {
	b.nextExecID++
	exec := models.SuiteExecution{
		ID:              b.nextExecID,
		Executed:        models.Timestamp{Time: b.now()},
		CheckExecutions: []models.CheckExecution{},
	}

	allOK := true
	for _, c := range s.Checks {
		if !c.Active {
			continue
		}
		input := models.CloneValues(c.ParamValues)
		if input == nil {
			input = make(map[string]models.Value)
		}
		for _, p := range c.CheckMetadata.Parameters {
			if p.Delegate {
				input[p.Name] = delegatedValue(s.GaParams, p.Name)
			}
		}

		success := true
		if outcome, ok := b.outcomes[c.Name]; ok {
			success = outcome
		}
		allOK = allOK && success

		result := models.CheckExecutionResult{Success: success, Payload: []models.Value{}}
		if !success {
			result.Payload = append(result.Payload, models.Map(map[string]models.Value{
				"problem": models.String("check failed"),
			}))
		}

		b.nextExecID++
		exec.CheckExecutions = append(exec.CheckExecutions, models.CheckExecution{
			ID:        b.nextExecID,
			Name:      c.Name,
			Title:     c.CheckMetadata.Title,
			Status:    models.StatusDone,
			Success:   models.BoolPtr(success),
			InputData: input,
			Result:    result,
		})
	}
	exec.Success = models.BoolPtr(allOK)
	return exec
}

func delegatedValue(p models.GaParams, name string) models.Value {
	var scope models.GaScope
	if len(p.Scope) > 0 {
		scope = p.Scope[0]
	}
	switch name {
	case "viewId":
		return models.String(scope.ViewID)
	case "webPropertyId":
		return models.String(scope.WebPropertyID)
	case "accountId":
		return models.String(scope.AccountID)
	case "startDate":
		return models.DateValue(p.StartDate)
	case "endDate":
		return models.DateValue(p.EndDate)
	}
	return models.Null()
}

// sortedSuites returns suites by id. The caller holds the lock.
func (b *Backend) sortedSuites() []*models.Suite {
	out := make([]*models.Suite, 0, len(b.suites))
	for _, s := range b.suites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out
}

// lookupSuite resolves the {id} path value. The caller holds the lock.
func (b *Backend) lookupSuite(w http.ResponseWriter, r *http.Request) (*models.Suite, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid suite id"})
		return nil, false
	}
	s, ok := b.suites[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	return s, true
}

func lookupCheck(w http.ResponseWriter, r *http.Request, s *models.Suite) (int, bool) {
	id, err := strconv.ParseInt(r.PathValue("checkId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid check id"})
		return 0, false
	}
	for i, c := range s.Checks {
		if c.ID == id {
			return i, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	return 0, false
}

func addStat(days map[string]*models.DailyStat, when models.Timestamp, success *bool) {
	day := models.NewDate(when.Year(), when.Month(), when.Day())
	key := day.String()
	stat, ok := days[key]
	if !ok {
		stat = &models.DailyStat{Day: day}
		days[key] = stat
	}
	stat.Executions++
	if success != nil && *success {
		stat.Successes++
	} else {
		stat.Fails++
	}
}

func sortStats(days map[string]*models.DailyStat) models.StatsTable {
	out := make(models.StatsTable, 0, len(days))
	for _, stat := range days {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out
}
