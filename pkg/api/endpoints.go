package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/grovetools/dqm/pkg/models"
)

// Paths of the backend REST API.
const (
	PathCache       = "/api/cache"
	PathGaAccounts  = "/api/gaaccounts"
	PathChecks      = "/api/checks"
	PathChecksStats = "/api/checks/stats"
	PathSuites      = "/api/suites/"
	PathSuitesStats = "/api/suites/stats"
	PathAppSettings = "/api/appsettings"
)

// SuitePath returns the path of one suite.
func SuitePath(id int64) string {
	return fmt.Sprintf("/api/suites/%d", id)
}

// SuiteChecksPath returns the check collection path of a suite.
func SuiteChecksPath(id int64) string {
	return fmt.Sprintf("/api/suites/%d/checks", id)
}

// CheckPath returns the path of one check of a suite.
func CheckPath(suiteID, checkID int64) string {
	return fmt.Sprintf("/api/suites/%d/checks/%d", suiteID, checkID)
}

// RunPath returns the execution trigger path of a suite.
func RunPath(id int64) string {
	return fmt.Sprintf("/api/suites/%d/run", id)
}

// AccountsCache returns the account hierarchy cached by the backend.
func (c *Client) AccountsCache(ctx context.Context) ([]models.Account, error) {
	var resp struct {
		Cache struct {
			GaAccounts []models.Account `json:"gaAccounts"`
		} `json:"cache"`
	}
	if err := c.do(ctx, http.MethodGet, PathCache, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cache.GaAccounts, nil
}

// Accounts returns the live account hierarchy. The backend refreshes its
// cache as a side effect.
func (c *Client) Accounts(ctx context.Context) ([]models.Account, error) {
	var resp struct {
		GaAccounts []models.Account `json:"gaAccounts"`
	}
	if err := c.do(ctx, http.MethodGet, PathGaAccounts, nil, &resp); err != nil {
		return nil, err
	}
	return resp.GaAccounts, nil
}

// ChecksMetadata returns the catalog of check types.
func (c *Client) ChecksMetadata(ctx context.Context) ([]models.CheckMetadata, error) {
	var resp struct {
		ChecksMetadata []models.CheckMetadata `json:"checksMetadata"`
	}
	if err := c.do(ctx, http.MethodGet, PathChecks, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ChecksMetadata, nil
}

// ChecksStats returns per-day check execution statistics.
func (c *Client) ChecksStats(ctx context.Context) (models.StatsTable, error) {
	var resp struct {
		Result models.StatsTable `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, PathChecksStats, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Suites lists suite previews.
func (c *Client) Suites(ctx context.Context) ([]models.SuitePreview, error) {
	var resp struct {
		Suites []models.SuitePreview `json:"suites"`
	}
	if err := c.do(ctx, http.MethodGet, PathSuites, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suites, nil
}

// SuitesStats returns per-day suite execution statistics.
func (c *Client) SuitesStats(ctx context.Context) (models.StatsTable, error) {
	var resp struct {
		Result models.StatsTable `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, PathSuitesStats, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Suite fetches one suite with its checks and executions.
func (c *Client) Suite(ctx context.Context, id int64) (models.Suite, error) {
	var resp struct {
		Suite models.Suite `json:"suite"`
	}
	if err := c.do(ctx, http.MethodGet, SuitePath(id), nil, &resp); err != nil {
		return models.Suite{}, err
	}
	return resp.Suite, nil
}

// CreateSuite creates a suite and returns its id.
func (c *Client) CreateSuite(ctx context.Context, params models.SuiteCreationData) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, PathSuites, params, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateSuite replaces a suite. The backend persists name and GA parameters.
func (c *Client) UpdateSuite(ctx context.Context, id int64, suite models.Suite) error {
	return c.do(ctx, http.MethodPut, SuitePath(id), suite, nil)
}

// DeleteSuite deletes a suite.
func (c *Client) DeleteSuite(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, SuitePath(id), nil, nil)
}

// CreateCheck adds a check of the named type to a suite. The backend assigns
// the id and default parameter values.
func (c *Client) CreateCheck(ctx context.Context, suiteID int64, name string) (models.Check, error) {
	var resp struct {
		Check models.Check `json:"check"`
	}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, SuiteChecksPath(suiteID), body, &resp); err != nil {
		return models.Check{}, err
	}
	return resp.Check, nil
}

// UpdateCheck replaces a check and returns it as sent. When the check carries
// its type metadata, the parameter values are validated and cast first, and
// nothing is sent if they are invalid.
func (c *Client) UpdateCheck(ctx context.Context, suiteID int64, check models.Check) (models.Check, error) {
	check = check.Clone()
	if check.CheckMetadata.Name != "" {
		values, err := models.ValidateParams(check.CheckMetadata, check.ParamValues)
		if err != nil {
			return models.Check{}, err
		}
		check.ParamValues = values
	}
	if err := c.do(ctx, http.MethodPut, CheckPath(suiteID, check.ID), check, nil); err != nil {
		return models.Check{}, err
	}
	return check, nil
}

// DeleteCheck removes a check from a suite.
func (c *Client) DeleteCheck(ctx context.Context, suiteID, checkID int64) error {
	return c.do(ctx, http.MethodDelete, CheckPath(suiteID, checkID), nil, nil)
}

// RunSuite executes a suite and returns the resulting execution.
func (c *Client) RunSuite(ctx context.Context, suiteID int64) (models.SuiteExecution, error) {
	var resp struct {
		Result models.SuiteExecution `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, RunPath(suiteID), nil, &resp); err != nil {
		return models.SuiteExecution{}, err
	}
	return resp.Result, nil
}

// AppSettings returns the backend settings.
func (c *Client) AppSettings(ctx context.Context) (models.AppSettings, error) {
	var resp struct {
		AppSettings models.AppSettings `json:"appSettings"`
	}
	if err := c.do(ctx, http.MethodGet, PathAppSettings, nil, &resp); err != nil {
		return models.AppSettings{}, err
	}
	return resp.AppSettings, nil
}
