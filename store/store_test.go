package store

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksWithIDs(ids ...int64) []models.Check {
	checks := make([]models.Check, len(ids))
	for i, id := range ids {
		checks[i] = models.Check{ID: id, Name: fmt.Sprintf("check-%d", id), Active: true}
	}
	return checks
}

func suiteWithChecks(ids ...int64) models.Suite {
	s := models.NewSuite()
	s.ID = models.Int64Ptr(1)
	s.Name = "suite"
	s.Checks = checksWithIDs(ids...)
	return s
}

func checkIDs(checks []models.Check) []int64 {
	ids := make([]int64, len(checks))
	for i, c := range checks {
		ids[i] = c.ID
	}
	return ids
}

func TestCatalogLookups(t *testing.T) {
	s := New(nil)

	t.Run("known keys", func(t *testing.T) {
		assert.Equal(t, "Trustful", s.Theme("trustful").Name)
		assert.Equal(t, "Google Analytics", s.Platform("ga").Name)
	})

	t.Run("unknown keys fall back to generic", func(t *testing.T) {
		for _, name := range []string{"", "unknown", "GA", "Trustful"} {
			assert.Equal(t, s.Theme(GenericKey), s.Theme(name), "theme %q", name)
			assert.Equal(t, s.Platform(GenericKey), s.Platform(name), "platform %q", name)
		}
	})

	t.Run("templates", func(t *testing.T) {
		tpl, ok := s.Template("monitored")
		require.True(t, ok)
		assert.True(t, tpl.Disabled)

		tpl, ok = s.Template("empty")
		require.True(t, ok)
		assert.False(t, tpl.Disabled)

		_, ok = s.Template("nope")
		assert.False(t, ok)
	})

	t.Run("colors", func(t *testing.T) {
		c, ok := s.Color("green")
		require.True(t, ok)
		assert.Equal(t, models.ColorGreen, c)
		_, ok = s.Color("purple")
		assert.False(t, ok)
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"generic", "insightful", "monitored", "trustful"}, s.ThemeNames())
		assert.Equal(t, []string{"ads", "ga", "generic"}, s.PlatformNames())
		assert.Equal(t, []string{"empty", "insightful", "monitored", "trustful"}, s.TemplateNames())
	})
}

func TestOptions(t *testing.T) {
	s := New(nil, WithVersion("1.2.3"), WithDebug(true), WithFeedbackFormURL("https://example.com/form"), WithDrawer(false))
	assert.Equal(t, "1.2.3", s.Version())
	assert.True(t, s.Debug())
	assert.Equal(t, "https://example.com/form", s.FeedbackFormURL())
	assert.False(t, s.Drawer())

	d := New(nil)
	assert.Equal(t, DefaultFeedbackFormURL, d.FeedbackFormURL())
	assert.True(t, d.Drawer())
}

func TestToggleDrawer(t *testing.T) {
	s := New(nil)
	s.ToggleDrawer()
	assert.False(t, s.Drawer())
	s.ToggleDrawer()
	assert.True(t, s.Drawer())
}

func TestShowMessage(t *testing.T) {
	s := New(nil)
	assert.Equal(t, models.Snackbar{}, s.Snackbar())

	s.ShowMessage("Suite saved")
	assert.Equal(t, models.Snackbar{Show: true, Text: "Suite saved"}, s.Snackbar())

	s.ShowMessage("Check added")
	assert.Equal(t, "Check added", s.Snackbar().Text)
}

func TestRecordFatalError(t *testing.T) {
	t.Run("request failure uses the request target", func(t *testing.T) {
		s := New(nil)
		s.RecordFatalError(errors.RequestFailed("GET", "/api/checks", 500, "boom", nil))

		fatal := s.FatalError()
		require.NotNil(t, fatal)
		assert.Equal(t, "/api/checks", fatal.Text)
		assert.Equal(t, "GET", fatal.Details["method"])
		assert.Equal(t, 500, fatal.Details["status"])
		assert.Equal(t, "boom", fatal.Details["body"])
		assert.Equal(t, string(errors.ErrCodeRequestFailed), fatal.Details["code"])
	})

	t.Run("other errors use their message", func(t *testing.T) {
		s := New(nil)
		s.RecordFatalError(fmt.Errorf("disk full"))
		require.NotNil(t, s.FatalError())
		assert.Equal(t, "disk full", s.FatalError().Text)

		s.RecordFatalError(errors.NoActiveSuite("run suite"))
		assert.Equal(t, "no active suite", s.FatalError().Text)
	})

	t.Run("later errors supersede earlier ones", func(t *testing.T) {
		s := New(nil)
		s.RecordFatalError(errors.RequestFailed("GET", "/api/cache", 502, "", nil))
		s.RecordFatalError(errors.RequestFailed("POST", "/api/suites/3/run", 500, "", nil))
		assert.Equal(t, "/api/suites/3/run", s.FatalError().Text)
	})

	t.Run("nil is ignored", func(t *testing.T) {
		s := New(nil)
		s.RecordFatalError(nil)
		assert.Nil(t, s.FatalError())
	})

	t.Run("accessor returns a copy", func(t *testing.T) {
		s := New(nil)
		s.RecordFatalError(errors.RequestFailed("GET", "/api/checks", 500, "", nil))
		s.FatalError().Details["method"] = "PUT"
		assert.Equal(t, "GET", s.FatalError().Details["method"])
	})
}

func TestReplaceCheck(t *testing.T) {
	tests := []struct {
		name    string
		initial []int64
		replace int64
		wantIDs []int64
		changed bool
	}{
		{name: "first", initial: []int64{1, 2, 3}, replace: 1, wantIDs: []int64{1, 2, 3}, changed: true},
		{name: "middle", initial: []int64{1, 2, 3}, replace: 2, wantIDs: []int64{1, 2, 3}, changed: true},
		{name: "last", initial: []int64{1, 2, 3}, replace: 3, wantIDs: []int64{1, 2, 3}, changed: true},
		{name: "absent", initial: []int64{1, 2, 3}, replace: 9, wantIDs: []int64{1, 2, 3}},
		{name: "empty suite", initial: nil, replace: 1, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			s.SetSuite(suiteWithChecks(tt.initial...))
			before := s.SuiteChecks()

			s.ReplaceCheck(models.Check{ID: tt.replace, Name: "replaced", Comments: "new"})

			after := s.SuiteChecks()
			assert.Equal(t, tt.wantIDs, checkIDs(after))
			for i, c := range after {
				if c.ID == tt.replace {
					assert.Equal(t, "replaced", c.Name)
					assert.Equal(t, "new", c.Comments)
					continue
				}
				assert.Empty(t, cmp.Diff(before[i], c), "untouched check %d changed", c.ID)
			}
			if !tt.changed {
				assert.Empty(t, cmp.Diff(before, after))
			}
		})
	}
}

func TestRemoveCheck(t *testing.T) {
	s := New(nil)
	s.SetSuite(suiteWithChecks(1, 2, 3))

	s.RemoveCheck(models.Check{ID: 7})
	assert.Equal(t, []int64{1, 2, 3}, checkIDs(s.SuiteChecks()), "absent id is a no-op")

	s.RemoveCheck(models.Check{ID: 2})
	assert.Equal(t, []int64{1, 3}, checkIDs(s.SuiteChecks()))

	s.RemoveCheck(models.Check{ID: 1})
	s.RemoveCheck(models.Check{ID: 3})
	assert.Empty(t, s.SuiteChecks())
}

func TestAppendCheckAndExecution(t *testing.T) {
	s := New(nil)
	s.SetSuite(suiteWithChecks(1, 2))

	s.AppendCheck(models.Check{ID: 3, Name: "new"})
	assert.Equal(t, []int64{1, 2, 3}, checkIDs(s.SuiteChecks()))

	for i := 1; i <= 3; i++ {
		s.AppendExecution(models.SuiteExecution{ID: int64(i), Success: models.BoolPtr(i%2 == 0)})
		execs := s.Suite().Executions
		require.Len(t, execs, i)
		for j, e := range execs {
			assert.Equal(t, int64(j+1), e.ID)
		}
	}
}

func TestSetGaParamsLeavesChecksAndExecutions(t *testing.T) {
	s := New(nil)
	suite := suiteWithChecks(1, 2)
	suite.Executions = []models.SuiteExecution{{ID: 5, Success: models.BoolPtr(true)}}
	s.SetSuite(suite)

	s.SetGaParams(models.GaParams{Scope: []models.GaScope{{ViewID: "v1"}, {ViewID: "v2"}}})

	got := s.Suite()
	assert.Equal(t, []string{"v1", "v2"}, s.SelectedViews())
	assert.Empty(t, cmp.Diff(suite.Checks, got.Checks))
	assert.Empty(t, cmp.Diff(suite.Executions, got.Executions))
}

func TestSuiteAccessorReturnsCopy(t *testing.T) {
	s := New(nil)
	s.SetSuite(suiteWithChecks(1))

	got := s.Suite()
	got.Checks[0].Name = "mutated"
	got.Name = "mutated"

	assert.Equal(t, "suite", s.Suite().Name)
	assert.Equal(t, "check-1", s.SuiteChecks()[0].Name)
}

func TestNewStoreState(t *testing.T) {
	s := New(nil)
	suite := s.Suite()
	assert.Nil(t, suite.ID)
	assert.Empty(t, suite.Checks)
	assert.Empty(t, suite.Executions)
	assert.Empty(t, s.Accounts())
	assert.Empty(t, s.ChecksMetadata())
	assert.Empty(t, s.SelectedViews())
	assert.Nil(t, s.FatalError())
}

func TestSetAccountsAndMetadata(t *testing.T) {
	s := New(nil)
	s.SetAccounts([]models.Account{{ID: "1", Name: "a"}})
	s.SetChecksMetadata([]models.CheckMetadata{{Name: "CheckPii", Theme: "trustful"}})

	assert.Len(t, s.Accounts(), 1)
	meta, ok := s.CheckMetadata("CheckPii")
	require.True(t, ok)
	assert.Equal(t, "trustful", meta.Theme)
	_, ok = s.CheckMetadata("Missing")
	assert.False(t, ok)

	s.SetAccounts(nil)
	assert.Empty(t, s.Accounts())
}

func TestSubscribe(t *testing.T) {
	s := New(nil)
	ch := s.Subscribe()

	s.ToggleDrawer()
	s.ShowMessage("hello")
	s.AppendCheck(models.Check{ID: 1})
	s.RemoveCheck(models.Check{ID: 99})
	s.RemoveCheck(models.Check{ID: 1})

	var got []UpdateType
	for i := 0; i < 4; i++ {
		u := <-ch
		got = append(got, u.Type)
	}
	assert.Equal(t, []UpdateType{UpdateDrawer, UpdateSnackbar, UpdateChecks, UpdateChecks}, got)
	assert.Empty(t, ch, "no-op mutations are not published")

	s.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	// A second unsubscribe is harmless.
	s.Unsubscribe(ch)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New(nil)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+10; i++ {
		s.ToggleDrawer()
	}
	assert.Len(t, ch, subscriberBuffer)
}
