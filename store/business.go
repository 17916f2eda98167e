package store

import (
	"github.com/grovetools/dqm/pkg/models"
)

type businessState struct {
	suite          models.Suite
	accounts       []models.Account
	checksMetadata []models.CheckMetadata
}

// Suite returns a copy of the active suite.
func (s *Store) Suite() models.Suite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.business.suite.Clone()
}

// SuiteChecks returns a copy of the active suite's checks.
func (s *Store) SuiteChecks() []models.Check {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneChecks(s.business.suite.Checks)
}

// SelectedViews returns the view ids of the active suite's GA scope.
func (s *Store) SelectedViews() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.business.suite.GaParams.SelectedViews()
}

// Accounts returns the known account hierarchy.
func (s *Store) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Account{}, s.business.accounts...)
}

// ChecksMetadata returns the check type catalog.
func (s *Store) ChecksMetadata() []models.CheckMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CheckMetadata{}, s.business.checksMetadata...)
}

// CheckMetadata looks up a check type in the catalog.
func (s *Store) CheckMetadata(name string) (models.CheckMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FindCheckMetadata(s.business.checksMetadata, name)
}

// SetSuite replaces the active suite.
func (s *Store) SetSuite(suite models.Suite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.suite = suite.Clone()
	s.broadcast(Update{Type: UpdateSuite, Payload: suite.Clone()})
}

// AppendExecution appends an execution to the active suite.
func (s *Store) AppendExecution(exec models.SuiteExecution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.suite.Executions = append(s.business.suite.Executions, exec.Clone())
	s.broadcast(Update{Type: UpdateExecutions, Payload: exec.Clone()})
}

// AppendCheck appends a check to the active suite.
func (s *Store) AppendCheck(check models.Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.suite.Checks = append(s.business.suite.Checks, check.Clone())
	s.broadcast(Update{Type: UpdateChecks, Payload: cloneChecks(s.business.suite.Checks)})
}

// ReplaceCheck replaces the check with the same id in place. Nothing happens
// when no check has that id.
func (s *Store) ReplaceCheck(check models.Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.business.suite.Checks {
		if c.ID == check.ID {
			s.business.suite.Checks[i] = check.Clone()
			s.broadcast(Update{Type: UpdateChecks, Payload: cloneChecks(s.business.suite.Checks)})
			return
		}
	}
}

// RemoveCheck removes the check with the same id. Nothing happens when no
// check has that id.
func (s *Store) RemoveCheck(check models.Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	checks := s.business.suite.Checks
	kept := make([]models.Check, 0, len(checks))
	for _, c := range checks {
		if c.ID != check.ID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(checks) {
		return
	}
	s.business.suite.Checks = kept
	s.broadcast(Update{Type: UpdateChecks, Payload: cloneChecks(kept)})
}

// SetGaParams replaces the GA parameters of the active suite.
func (s *Store) SetGaParams(params models.GaParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.suite.GaParams = params.Clone()
	s.broadcast(Update{Type: UpdateGaParams, Payload: params.Clone()})
}

// SetAccounts replaces the account hierarchy.
func (s *Store) SetAccounts(accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.accounts = append([]models.Account{}, accounts...)
	s.broadcast(Update{Type: UpdateAccounts, Payload: append([]models.Account{}, accounts...)})
}

// SetChecksMetadata replaces the check type catalog.
func (s *Store) SetChecksMetadata(catalog []models.CheckMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business.checksMetadata = append([]models.CheckMetadata{}, catalog...)
	s.broadcast(Update{Type: UpdateChecksMetadata, Payload: append([]models.CheckMetadata{}, catalog...)})
}

func cloneChecks(checks []models.Check) []models.Check {
	if checks == nil {
		return nil
	}
	out := make([]models.Check, len(checks))
	for i, c := range checks {
		out[i] = c.Clone()
	}
	return out
}
