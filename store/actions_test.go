package store

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/internal/testbackend"
	"github.com/grovetools/dqm/pkg/api"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...testbackend.Option) (*Store, *testbackend.Backend) {
	t.Helper()
	backend := testbackend.New(opts...)
	t.Cleanup(backend.Close)

	client, err := api.New(backend.URL(), api.WithTimeout(5*time.Second))
	require.NoError(t, err)
	require.NoError(t, client.Bootstrap(context.Background()))
	return New(client), backend
}

// loadSuite creates a suite on the backend and makes it active.
func loadSuite(t *testing.T, s *Store, template string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateSuite(ctx, models.SuiteCreationData{Name: "active", TemplateID: template})
	require.NoError(t, err)
	require.NoError(t, s.FetchSuite(ctx, id))
	return id
}

func countRequests(reqs []testbackend.Request, method, path string) int {
	n := 0
	for _, r := range reqs {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func TestCreateThenFetchSuite(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSuite(ctx, models.SuiteCreationData{Name: "Q1 Audit", TemplateID: "empty"})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Nil(t, s.Suite().ID, "creating does not change the active suite")

	require.NoError(t, s.FetchSuite(ctx, id))
	suite := s.Suite()
	require.NotNil(t, suite.ID)
	assert.Equal(t, id, *suite.ID)
	assert.Equal(t, "Q1 Audit", suite.Name)
	assert.Empty(t, suite.Checks)
	assert.Nil(t, s.FatalError())
}

func TestCreateCheckOnEmptySuite(t *testing.T) {
	catalog := append(testbackend.DefaultCatalog(), models.CheckMetadata{
		Name:     "pageviews",
		Title:    "Page views",
		Theme:    "generic",
		Platform: "ga",
		GaLevel:  models.GaLevelView,
	})
	s, _ := newTestStore(t, testbackend.WithCatalog(catalog))
	loadSuite(t, s, "empty")
	require.Empty(t, s.SuiteChecks())

	check, err := s.CreateCheck(context.Background(), "pageviews")
	require.NoError(t, err)

	checks := s.SuiteChecks()
	require.Len(t, checks, 1)
	assert.Equal(t, "pageviews", checks[0].Name)
	assert.Equal(t, check.ID, checks[0].ID)
	assert.Equal(t, "Page views", checks[0].CheckMetadata.Title)
}

func TestRunSuiteAppendsExecution(t *testing.T) {
	s, _ := newTestStore(t)
	loadSuite(t, s, "trustful")
	ctx := context.Background()

	for n := 0; n < 3; n++ {
		before := s.Suite().Executions
		require.Len(t, before, n)

		exec, err := s.RunSuite(ctx)
		require.NoError(t, err)

		after := s.Suite().Executions
		require.Len(t, after, n+1)
		assert.Empty(t, cmp.Diff(before, after[:n]), "prior executions unchanged")
		assert.Equal(t, exec.ID, after[n].ID, "new execution appended last")
	}
}

func TestUpdateGaParams(t *testing.T) {
	s, backend := newTestStore(t)
	id := loadSuite(t, s, "trustful")
	ctx := context.Background()

	_, err := s.RunSuite(ctx)
	require.NoError(t, err)
	before := s.Suite()
	path := api.SuitePath(id)
	puts := countRequests(backend.Requests(), http.MethodPut, path)

	params := models.GaParams{
		StartDate: models.NewDate(2020, time.January, 1),
		EndDate:   models.NewDate(2020, time.March, 31),
		Scope:     []models.GaScope{{AccountID: "1000", WebPropertyID: "UA-1000-1", ViewID: "2000"}},
	}
	require.NoError(t, s.UpdateGaParams(ctx, params))

	reqs := backend.Requests()
	assert.Equal(t, puts+1, countRequests(reqs, http.MethodPut, path), "exactly one remote write")

	last := reqs[len(reqs)-1]
	require.Equal(t, http.MethodPut, last.Method)
	var sent models.Suite
	require.NoError(t, json.Unmarshal(last.Body, &sent))
	assert.Equal(t, before.Name, sent.Name)
	assert.Len(t, sent.Checks, len(before.Checks), "full suite body is sent")
	assert.Len(t, sent.Executions, len(before.Executions))
	assert.Equal(t, []string{"2000"}, sent.GaParams.SelectedViews())

	after := s.Suite()
	assert.Empty(t, cmp.Diff(before.Checks, after.Checks))
	assert.Empty(t, cmp.Diff(before.Executions, after.Executions))
	assert.Empty(t, cmp.Diff(params, after.GaParams))

	stored, _ := backend.Suite(id)
	assert.Equal(t, []string{"2000"}, stored.GaParams.SelectedViews())
}

func TestUpdateSuiteIsOptimistic(t *testing.T) {
	s, _ := newTestStore(t)
	loadSuite(t, s, "empty")

	suite := s.Suite()
	suite.Name = "Renamed"
	require.NoError(t, s.UpdateSuite(context.Background(), suite))
	assert.Equal(t, "Renamed", s.Suite().Name)
}

func TestUpdateSuiteWithoutID(t *testing.T) {
	s, backend := newTestStore(t)
	sent := len(backend.Requests())

	err := s.UpdateSuite(context.Background(), models.NewSuite())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoActiveSuite, errors.GetCode(err))
	assert.Len(t, backend.Requests(), sent)
	require.NotNil(t, s.FatalError())
}

func TestDeleteSuiteKeepsState(t *testing.T) {
	s, backend := newTestStore(t)
	id := loadSuite(t, s, "empty")

	require.NoError(t, s.DeleteSuite(context.Background(), id))
	assert.Equal(t, 0, backend.SuiteCount())
	require.NotNil(t, s.Suite().ID, "active suite is left for the caller to replace")
}

func TestUpdateAndDeleteCheck(t *testing.T) {
	s, backend := newTestStore(t)
	id := loadSuite(t, s, "trustful")
	ctx := context.Background()

	checks := s.SuiteChecks()
	require.Len(t, checks, 2)
	target := checks[1]
	target.Comments = "threshold raised"
	target.ParamValues["threshold"] = models.String("10")

	require.NoError(t, s.UpdateCheck(ctx, target))
	got := s.SuiteChecks()
	assert.Equal(t, checkIDs(checks), checkIDs(got))
	assert.Equal(t, "threshold raised", got[1].Comments)
	assert.True(t, got[1].ParamValues["threshold"].Equal(models.Int(10)), "stored with the declared type")
	assert.Empty(t, cmp.Diff(checks[0], got[0]))

	stored, _ := backend.Suite(id)
	assert.Equal(t, "threshold raised", stored.Checks[1].Comments)

	require.NoError(t, s.DeleteCheck(ctx, got[0]))
	assert.Equal(t, []int64{got[1].ID}, checkIDs(s.SuiteChecks()))
}

func TestUpdateCheckRejectsInvalidValues(t *testing.T) {
	s, backend := newTestStore(t)
	loadSuite(t, s, "trustful")

	check := s.SuiteChecks()[1]
	check.ParamValues["threshold"] = models.String("lots")
	sent := len(backend.Requests())

	err := s.UpdateCheck(context.Background(), check)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
	assert.Len(t, backend.Requests(), sent)
	require.NotNil(t, s.FatalError())
	assert.NotEmpty(t, s.FatalError().Text)
	assert.True(t, s.SuiteChecks()[1].ParamValues["threshold"].Equal(models.Int(4)), "local state untouched")
}

func TestOperationsWithoutActiveSuite(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	sent := len(backend.Requests())

	ops := map[string]func() error{
		"create check": func() error { _, err := s.CreateCheck(ctx, "CheckPii"); return err },
		"update check": func() error { return s.UpdateCheck(ctx, models.Check{ID: 1}) },
		"delete check": func() error { return s.DeleteCheck(ctx, models.Check{ID: 1}) },
		"ga params":    func() error { return s.UpdateGaParams(ctx, models.GaParams{}) },
		"run":          func() error { _, err := s.RunSuite(ctx); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeNoActiveSuite, errors.GetCode(err))
			require.NotNil(t, s.FatalError())
			assert.Equal(t, "no active suite", s.FatalError().Text)
		})
	}
	assert.Len(t, backend.Requests(), sent, "nothing reaches the backend")
}

func TestFailuresAreRecorded(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   func(suiteID, checkID int64) string
		run    func(ctx context.Context, s *Store, check models.Check) error
	}{
		{
			name: "fetch accounts cache", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathCache },
			run:  func(ctx context.Context, s *Store, _ models.Check) error { return s.FetchAccountsCache(ctx) },
		},
		{
			name: "fetch accounts", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathGaAccounts },
			run:  func(ctx context.Context, s *Store, _ models.Check) error { return s.FetchAccounts(ctx) },
		},
		{
			name: "fetch checks metadata", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathChecks },
			run:  func(ctx context.Context, s *Store, _ models.Check) error { return s.FetchChecksMetadata(ctx) },
		},
		{
			name: "fetch app settings", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathAppSettings },
			run:  func(ctx context.Context, s *Store, _ models.Check) error { return s.FetchAppSettings(ctx) },
		},
		{
			name: "list suites", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathSuites },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.ListSuites(ctx)
				return err
			},
		},
		{
			name: "fetch suite", method: http.MethodGet,
			path: func(id, _ int64) string { return api.SuitePath(id) },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				id, _ := s.Suite().IDValue()
				return s.FetchSuite(ctx, id)
			},
		},
		{
			name: "create suite", method: http.MethodPost,
			path: func(int64, int64) string { return api.PathSuites },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.CreateSuite(ctx, models.SuiteCreationData{Name: "x"})
				return err
			},
		},
		{
			name: "update suite", method: http.MethodPut,
			path: func(id, _ int64) string { return api.SuitePath(id) },
			run:  func(ctx context.Context, s *Store, _ models.Check) error { return s.UpdateSuite(ctx, s.Suite()) },
		},
		{
			name: "delete suite", method: http.MethodDelete,
			path: func(id, _ int64) string { return api.SuitePath(id) },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				id, _ := s.Suite().IDValue()
				return s.DeleteSuite(ctx, id)
			},
		},
		{
			name: "create check", method: http.MethodPost,
			path: func(id, _ int64) string { return api.SuiteChecksPath(id) },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.CreateCheck(ctx, "CheckDummy")
				return err
			},
		},
		{
			name: "update check", method: http.MethodPut,
			path: api.CheckPath,
			run:  func(ctx context.Context, s *Store, c models.Check) error { return s.UpdateCheck(ctx, c) },
		},
		{
			name: "delete check", method: http.MethodDelete,
			path: api.CheckPath,
			run:  func(ctx context.Context, s *Store, c models.Check) error { return s.DeleteCheck(ctx, c) },
		},
		{
			name: "update ga params", method: http.MethodPut,
			path: func(id, _ int64) string { return api.SuitePath(id) },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				return s.UpdateGaParams(ctx, models.GaParams{Scope: []models.GaScope{{ViewID: "2000"}}})
			},
		},
		{
			name: "run suite", method: http.MethodPost,
			path: func(id, _ int64) string { return api.RunPath(id) },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.RunSuite(ctx)
				return err
			},
		},
		{
			name: "checks stats", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathChecksStats },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.FetchChecksStats(ctx)
				return err
			},
		},
		{
			name: "suites stats", method: http.MethodGet,
			path: func(int64, int64) string { return api.PathSuitesStats },
			run: func(ctx context.Context, s *Store, _ models.Check) error {
				_, err := s.FetchSuitesStats(ctx)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend := newTestStore(t)
			id := loadSuite(t, s, "trustful")
			check := s.SuiteChecks()[0]
			before := s.Suite()

			path := tt.path(id, check.ID)
			backend.Fail(tt.method, path, http.StatusInternalServerError, `{"detail":"boom"}`)

			err := tt.run(context.Background(), s, check)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeRequestFailed, errors.GetCode(err))

			fatal := s.FatalError()
			require.NotNil(t, fatal)
			assert.Equal(t, path, fatal.Text)
			assert.Equal(t, tt.method, fatal.Details["method"])
			assert.Equal(t, http.StatusInternalServerError, fatal.Details["status"])

			assert.Empty(t, cmp.Diff(before, s.Suite()), "state untouched on failure")
		})
	}
}

func TestLoadReferenceData(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.LoadReferenceData(context.Background()))

	assert.Equal(t, testbackend.DefaultAccounts()[0].Name, s.Accounts()[0].Name)
	assert.Len(t, s.ChecksMetadata(), len(testbackend.DefaultCatalog()))
	assert.Equal(t, testbackend.DefaultSettings(), s.AppSettings())
	assert.Nil(t, s.FatalError())
}

func TestLoadReferenceDataFailure(t *testing.T) {
	s, backend := newTestStore(t)
	backend.Fail(http.MethodGet, api.PathCache, http.StatusInternalServerError, "")
	backend.Delay(http.MethodGet, api.PathChecks, 200*time.Millisecond)
	backend.Delay(http.MethodGet, api.PathAppSettings, 200*time.Millisecond)

	err := s.LoadReferenceData(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRequestFailed, errors.GetCode(err))

	fatal := s.FatalError()
	require.NotNil(t, fatal)
	assert.Equal(t, api.PathCache, fatal.Text, "slow requests are not cancelled by the failure")

	assert.Empty(t, s.Accounts())
	assert.Len(t, s.ChecksMetadata(), len(testbackend.DefaultCatalog()))
	assert.Equal(t, testbackend.DefaultSettings(), s.AppSettings())
}

func TestFetchAccountsLive(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.FetchAccounts(context.Background()))

	tree := models.AccountsTree(s.Accounts())
	require.Len(t, tree, 1)
	assert.Equal(t, "Demo account", tree[0].Name)
}

func TestListSuitesAndStats(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	loadSuite(t, s, "trustful")
	backend.SetOutcome("CheckPii", false)

	_, err := s.RunSuite(ctx)
	require.NoError(t, err)

	suites, err := s.ListSuites(ctx)
	require.NoError(t, err)
	require.Len(t, suites, 1)
	require.NotNil(t, suites[0].LastExecutionSuccess)
	assert.False(t, *suites[0].LastExecutionSuccess)

	suiteStats, err := s.FetchSuitesStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, suiteStats.Totals().Fails)

	checkStats, err := s.FetchChecksStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, checkStats.Totals().Executions)
}

func TestActionsPublishUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	loadSuite(t, s, "empty")
	u := <-ch
	assert.Equal(t, UpdateSuite, u.Type)
	suite, ok := u.Payload.(models.Suite)
	require.True(t, ok)
	assert.Equal(t, "active", suite.Name)

	_, err := s.RunSuite(context.Background())
	require.NoError(t, err)
	u = <-ch
	assert.Equal(t, UpdateExecutions, u.Type)
}
