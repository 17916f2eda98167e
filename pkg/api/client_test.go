package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/internal/testbackend"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...testbackend.Option) (*Client, *testbackend.Backend) {
	t.Helper()
	backend := testbackend.New(opts...)
	t.Cleanup(backend.Close)

	client, err := New(backend.URL(), WithTimeout(5*time.Second))
	require.NoError(t, err)
	require.NoError(t, client.Bootstrap(context.Background()))
	return client, backend
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		want    string
	}{
		{name: "http", url: "http://localhost:8000", want: "http://localhost:8000"},
		{name: "trailing slash trimmed", url: "https://dqm.example.com/app/", want: "https://dqm.example.com/app"},
		{name: "unsupported scheme", url: "ftp://example.com", wantErr: true},
		{name: "not a url", url: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestWithHTTPClientLeavesCallerClientAlone(t *testing.T) {
	backend := testbackend.New()
	t.Cleanup(backend.Close)

	shared := &http.Client{}
	reg := prometheus.NewRegistry()
	c, err := New(backend.URL(),
		WithTimeout(3*time.Second),
		WithMetrics(reg),
		WithHTTPClient(shared),
	)
	require.NoError(t, err)

	assert.Nil(t, shared.Jar)
	assert.Nil(t, shared.Transport)
	assert.Zero(t, shared.Timeout)

	assert.NotSame(t, shared, c.httpClient)
	assert.NotNil(t, c.httpClient.Jar)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout, "options given before WithHTTPClient still apply")

	_, err = c.Suites(context.Background())
	require.NoError(t, err)
	n, err := promtestutil.GatherAndCount(reg, "dqm_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithHTTPClientKeepsItsTimeout(t *testing.T) {
	c, err := New("http://localhost:8000", WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.httpClient.Timeout)

	c, err = New("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestWithMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("http://localhost:8000", WithMetrics(reg))
	require.NoError(t, err)

	_, err = New("http://localhost:8000", WithMetrics(reg))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
}

func TestCSRFCookieEchoedOnMutatingRequests(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	assert.Equal(t, backend.CSRFToken(), client.CSRFToken())

	_, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "csrf"})
	require.NoError(t, err)

	last, ok := backend.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, backend.CSRFToken(), last.CSRF)

	_, err = client.Suites(ctx)
	require.NoError(t, err)
	last, _ = backend.LastRequest()
	assert.Empty(t, last.CSRF, "safe requests do not carry the token")
}

func TestMissingCSRFCookie(t *testing.T) {
	backend := testbackend.New()
	t.Cleanup(backend.Close)

	client, err := New(backend.URL())
	require.NoError(t, err)

	// No bootstrap: the request goes out without the header and the backend
	// rejects it.
	_, err = client.CreateSuite(context.Background(), models.SuiteCreationData{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRequestFailed, errors.GetCode(err))

	last, ok := backend.LastRequest()
	require.True(t, ok)
	assert.Empty(t, last.CSRF)

	de, ok := errors.As(err)
	require.True(t, ok)
	status, _ := de.Detail("status")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSetCSRFToken(t *testing.T) {
	backend := testbackend.New()
	t.Cleanup(backend.Close)

	client, err := New(backend.URL(), WithCSRF("", ""))
	require.NoError(t, err)
	client.SetCSRFToken(backend.CSRFToken())

	_, err = client.CreateSuite(context.Background(), models.SuiteCreationData{Name: "manual"})
	require.NoError(t, err)
}

func TestCustomCSRFNames(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "xsrf", Value: "tok", Path: "/"})
			return
		}
		gotHeader = r.Header.Get("X-XSRF")
		_, _ = w.Write([]byte(`{"id": 9}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, WithCSRF("xsrf", "X-XSRF"), WithUserAgent("dqm-test"))
	require.NoError(t, err)
	require.NoError(t, client.Bootstrap(context.Background()))

	id, err := client.CreateSuite(context.Background(), models.SuiteCreationData{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, "tok", gotHeader)
}

func TestSuiteLifecycle(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "My suite", TemplateID: "trustful"})
	require.NoError(t, err)

	suite, err := client.Suite(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, suite.ID)
	assert.Equal(t, id, *suite.ID)
	assert.Equal(t, "My suite", suite.Name)
	require.Len(t, suite.Checks, 2, "template selects every trustful check")
	for _, c := range suite.Checks {
		assert.Equal(t, "trustful", c.CheckMetadata.Theme, "metadata decoded from list form")
	}
	assert.Empty(t, suite.Executions)

	suite.Name = "Renamed"
	suite.GaParams = models.GaParams{
		StartDate: models.NewDate(2020, time.May, 1),
		EndDate:   models.NewDate(2020, time.May, 31),
		Scope:     []models.GaScope{{ViewID: "2000", WebPropertyID: "UA-1000-1", AccountID: "1000"}},
	}
	require.NoError(t, client.UpdateSuite(ctx, id, suite))

	stored, ok := backend.Suite(id)
	require.True(t, ok)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, []string{"2000"}, stored.GaParams.SelectedViews())

	previews, err := client.Suites(ctx)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "Renamed", previews[0].Name)
	assert.Nil(t, previews[0].LastExecutionSuccess)

	require.NoError(t, client.DeleteSuite(ctx, id))
	assert.Equal(t, 0, backend.SuiteCount())
}

func TestCheckLifecycle(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "checks"})
	require.NoError(t, err)

	check, err := client.CreateCheck(ctx, id, "CheckPii")
	require.NoError(t, err)
	assert.NotZero(t, check.ID)
	assert.True(t, check.Active)
	assert.True(t, check.ParamValues["blackList"].Equal(models.Strings("e-mail", "name", "password")))

	check.Active = false
	check.ParamValues["blackList"] = models.String("email,phone")
	sent, err := client.UpdateCheck(ctx, id, check)
	require.NoError(t, err)
	assert.True(t, sent.ParamValues["blackList"].Equal(models.Strings("email", "phone")))
	assert.True(t, check.ParamValues["blackList"].Equal(models.String("email,phone")), "argument not modified")

	stored, _ := backend.Suite(id)
	require.Len(t, stored.Checks, 1)
	assert.False(t, stored.Checks[0].Active)
	assert.True(t, stored.Checks[0].ParamValues["blackList"].Equal(models.Strings("email", "phone")),
		"values are cast before being sent")

	require.NoError(t, client.DeleteCheck(ctx, id, check.ID))
	stored, _ = backend.Suite(id)
	assert.Empty(t, stored.Checks)
}

func TestUpdateCheckRejectsInvalidParams(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "invalid"})
	require.NoError(t, err)
	check, err := client.CreateCheck(ctx, id, "CheckNbrEventCategories")
	require.NoError(t, err)

	sent := len(backend.Requests())
	check.ParamValues["threshold"] = models.String("many")
	_, err = client.UpdateCheck(ctx, id, check)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
	assert.Len(t, backend.Requests(), sent, "nothing sent for invalid values")
}

func TestRunSuiteAndStats(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "run", TemplateID: "trustful"})
	require.NoError(t, err)
	backend.SetOutcome("CheckPii", false)

	exec, err := client.RunSuite(ctx, id)
	require.NoError(t, err)
	require.Len(t, exec.CheckExecutions, 2)
	require.NotNil(t, exec.Success)
	assert.False(t, *exec.Success)
	for _, ce := range exec.CheckExecutions {
		assert.Equal(t, models.StatusDone, ce.Status)
	}

	suiteStats, err := client.SuitesStats(ctx)
	require.NoError(t, err)
	require.Len(t, suiteStats, 1)
	assert.Equal(t, models.DailyStat{Day: suiteStats[0].Day, Executions: 1, Fails: 1}, suiteStats[0])

	checkStats, err := client.ChecksStats(ctx)
	require.NoError(t, err)
	totals := checkStats.Totals()
	assert.Equal(t, 2, totals.Executions)
	assert.Equal(t, 1, totals.Successes)
	assert.Equal(t, 1, totals.Fails)
}

func TestReferenceEndpoints(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cached, err := client.AccountsCache(ctx)
	require.NoError(t, err)
	live, err := client.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, live)
	require.Len(t, cached, 1)
	assert.Equal(t, "Demo account", cached[0].Name)

	catalog, err := client.ChecksMetadata(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(testbackend.DefaultCatalog()))

	settings, err := client.AppSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, testbackend.DefaultSettings(), settings)
}

func TestRequestFailureDetails(t *testing.T) {
	client, backend := newTestClient(t)
	backend.Fail(http.MethodGet, PathChecks, http.StatusInternalServerError, "boom")

	_, err := client.ChecksMetadata(context.Background())
	require.Error(t, err)

	de, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRequestFailed, de.Code)

	url, _ := de.Detail("url")
	assert.Equal(t, PathChecks, url)
	method, _ := de.Detail("method")
	assert.Equal(t, http.MethodGet, method)
	status, _ := de.Detail("status")
	assert.Equal(t, http.StatusInternalServerError, status)
	body, _ := de.Detail("body")
	assert.Equal(t, "boom", body)
}

func TestDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"suites": "nope"`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.Suites(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRequestFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(url, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = client.AppSettings(context.Background())
	require.Error(t, err)
	de, ok := errors.As(err)
	require.True(t, ok)
	_, hasStatus := de.Detail("status")
	assert.False(t, hasStatus)
	assert.NotNil(t, de.Cause)
}

func TestContextCancellation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Suites(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestBodyShape(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreateSuite(ctx, models.SuiteCreationData{Name: "shape", TemplateID: "insightful"})
	require.NoError(t, err)

	reqs := backend.Requests()
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &created))
	assert.Equal(t, map[string]interface{}{"name": "shape", "templateId": "insightful"}, created)

	_, err = client.CreateCheck(ctx, id, "CheckDummy")
	require.NoError(t, err)
	last, _ := backend.LastRequest()
	assert.Equal(t, SuiteChecksPath(id), last.Path)
	assert.JSONEq(t, `{"name":"CheckDummy"}`, strings.TrimSpace(string(last.Body)))
}

func TestWithMetrics(t *testing.T) {
	backend := testbackend.New()
	t.Cleanup(backend.Close)

	reg := prometheus.NewRegistry()
	client, err := New(backend.URL(), WithMetrics(reg))
	require.NoError(t, err)
	require.NoError(t, client.Bootstrap(context.Background()))

	_, err = client.Suites(context.Background())
	require.NoError(t, err)
	backend.Fail(http.MethodGet, PathAppSettings, http.StatusBadGateway, "")
	_, err = client.AppSettings(context.Background())
	require.Error(t, err)

	n, err := promtestutil.GatherAndCount(reg, "dqm_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per code and method")

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "dqm_api_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(3), total)
}
