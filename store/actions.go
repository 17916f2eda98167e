package store

import (
	"context"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/api"
	"github.com/grovetools/dqm/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Backend is the remote API the store synchronizes with.
type Backend interface {
	AccountsCache(ctx context.Context) ([]models.Account, error)
	Accounts(ctx context.Context) ([]models.Account, error)
	ChecksMetadata(ctx context.Context) ([]models.CheckMetadata, error)
	ChecksStats(ctx context.Context) (models.StatsTable, error)
	Suites(ctx context.Context) ([]models.SuitePreview, error)
	SuitesStats(ctx context.Context) (models.StatsTable, error)
	Suite(ctx context.Context, id int64) (models.Suite, error)
	CreateSuite(ctx context.Context, params models.SuiteCreationData) (int64, error)
	UpdateSuite(ctx context.Context, id int64, suite models.Suite) error
	DeleteSuite(ctx context.Context, id int64) error
	CreateCheck(ctx context.Context, suiteID int64, name string) (models.Check, error)
	UpdateCheck(ctx context.Context, suiteID int64, check models.Check) (models.Check, error)
	DeleteCheck(ctx context.Context, suiteID, checkID int64) error
	RunSuite(ctx context.Context, suiteID int64) (models.SuiteExecution, error)
	AppSettings(ctx context.Context) (models.AppSettings, error)
}

var _ Backend = (*api.Client)(nil)

// Every operation below makes a single backend call. On failure the error is
// recorded in the fatal error slot and returned; state is left untouched.

// FetchAccountsCache loads the account hierarchy cached by the backend.
func (s *Store) FetchAccountsCache(ctx context.Context) error {
	accounts, err := s.backend.AccountsCache(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.SetAccounts(accounts)
	return nil
}

// FetchAccounts loads the live account hierarchy.
func (s *Store) FetchAccounts(ctx context.Context) error {
	accounts, err := s.backend.Accounts(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.SetAccounts(accounts)
	return nil
}

// FetchChecksMetadata loads the check type catalog.
func (s *Store) FetchChecksMetadata(ctx context.Context) error {
	catalog, err := s.backend.ChecksMetadata(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.SetChecksMetadata(catalog)
	return nil
}

// LoadReferenceData fetches the cached accounts, the check catalog and the app
// settings concurrently. The fetches are independent: one failing does not
// cancel the others. It returns the first failure; every failure is still
// recorded.
func (s *Store) LoadReferenceData(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchAccountsCache(ctx) })
	g.Go(func() error { return s.FetchChecksMetadata(ctx) })
	g.Go(func() error { return s.FetchAppSettings(ctx) })
	return g.Wait()
}

// ListSuites returns the suite previews. They are not stored.
func (s *Store) ListSuites(ctx context.Context) ([]models.SuitePreview, error) {
	suites, err := s.backend.Suites(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return suites, nil
}

// FetchSuite loads a suite and makes it the active one.
func (s *Store) FetchSuite(ctx context.Context, id int64) error {
	suite, err := s.backend.Suite(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	s.SetSuite(suite)
	return nil
}

// CreateSuite creates a suite and returns its id. The active suite is not
// changed.
func (s *Store) CreateSuite(ctx context.Context, params models.SuiteCreationData) (int64, error) {
	id, err := s.backend.CreateSuite(ctx, params)
	if err != nil {
		return 0, s.fail(err)
	}
	return id, nil
}

// UpdateSuite saves suite and then makes it the active suite as submitted.
func (s *Store) UpdateSuite(ctx context.Context, suite models.Suite) error {
	id, ok := suite.IDValue()
	if !ok {
		return s.fail(errors.NoActiveSuite("update suite"))
	}
	if err := s.backend.UpdateSuite(ctx, id, suite); err != nil {
		return s.fail(err)
	}
	s.SetSuite(suite)
	return nil
}

// DeleteSuite deletes a suite. The active suite is not changed.
func (s *Store) DeleteSuite(ctx context.Context, id int64) error {
	if err := s.backend.DeleteSuite(ctx, id); err != nil {
		return s.fail(err)
	}
	return nil
}

// CreateCheck adds a check of the named type to the active suite and appends
// the record returned by the backend.
func (s *Store) CreateCheck(ctx context.Context, name string) (models.Check, error) {
	id, err := s.activeSuiteID("create check")
	if err != nil {
		return models.Check{}, err
	}
	check, err := s.backend.CreateCheck(ctx, id, name)
	if err != nil {
		return models.Check{}, s.fail(err)
	}
	s.AppendCheck(check)
	return check, nil
}

// UpdateCheck saves a check of the active suite and replaces it locally with
// the record the backend accepted. Invalid parameter values are rejected by
// the backend client before sending and recorded like any other failure.
func (s *Store) UpdateCheck(ctx context.Context, check models.Check) error {
	id, err := s.activeSuiteID("update check")
	if err != nil {
		return err
	}
	saved, err := s.backend.UpdateCheck(ctx, id, check)
	if err != nil {
		return s.fail(err)
	}
	s.ReplaceCheck(saved)
	return nil
}

// DeleteCheck removes a check from the active suite.
func (s *Store) DeleteCheck(ctx context.Context, check models.Check) error {
	id, err := s.activeSuiteID("delete check")
	if err != nil {
		return err
	}
	if err := s.backend.DeleteCheck(ctx, id, check.ID); err != nil {
		return s.fail(err)
	}
	s.RemoveCheck(check)
	return nil
}

// UpdateGaParams saves the whole active suite carrying params, then replaces
// only the GA parameters locally.
func (s *Store) UpdateGaParams(ctx context.Context, params models.GaParams) error {
	id, err := s.activeSuiteID("update GA parameters")
	if err != nil {
		return err
	}
	body := s.Suite()
	body.GaParams = params.Clone()
	if err := s.backend.UpdateSuite(ctx, id, body); err != nil {
		return s.fail(err)
	}
	s.SetGaParams(params)
	return nil
}

// RunSuite executes the active suite and appends the resulting execution.
func (s *Store) RunSuite(ctx context.Context) (models.SuiteExecution, error) {
	id, err := s.activeSuiteID("run suite")
	if err != nil {
		return models.SuiteExecution{}, err
	}
	exec, err := s.backend.RunSuite(ctx, id)
	if err != nil {
		return models.SuiteExecution{}, s.fail(err)
	}
	s.AppendExecution(exec)
	return exec, nil
}

// FetchChecksStats returns per-day check statistics. They are not stored.
func (s *Store) FetchChecksStats(ctx context.Context) (models.StatsTable, error) {
	stats, err := s.backend.ChecksStats(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return stats, nil
}

// FetchSuitesStats returns per-day suite statistics. They are not stored.
func (s *Store) FetchSuitesStats(ctx context.Context) (models.StatsTable, error) {
	stats, err := s.backend.SuitesStats(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return stats, nil
}

// activeSuiteID returns the id of the active suite. A suite that was never
// saved has none, which is recorded as a failure of operation.
func (s *Store) activeSuiteID(operation string) (int64, error) {
	s.mu.RLock()
	id, ok := s.business.suite.IDValue()
	s.mu.RUnlock()
	if !ok {
		return 0, s.fail(errors.NoActiveSuite(operation))
	}
	return id, nil
}
