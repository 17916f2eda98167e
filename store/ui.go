package store

import (
	"context"
	"sort"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/sirupsen/logrus"
)

// GenericKey is the catalog key every lookup falls back to.
const GenericKey = "generic"

// DefaultFeedbackFormURL is the feedback link used when none is configured.
const DefaultFeedbackFormURL = "https://forms.gle/tZ1A7sPKf1QR4zP26"

type uiState struct {
	version         string
	debug           bool
	feedbackFormURL string

	themes    map[string]models.Theme
	platforms map[string]models.Platform
	templates map[string]models.Template
	colors    map[string]string

	appSettings models.AppSettings
	drawer      bool
	snackbar    models.Snackbar
	fatalError  *models.FatalError
}

func newUIState() uiState {
	return uiState{
		feedbackFormURL: DefaultFeedbackFormURL,
		themes: map[string]models.Theme{
			"generic":    {Name: "Generic", Color: "grey lighten-1", Icon: "mdi-console-line"},
			"trustful":   {Name: "Trustful", Color: "pink lighten-3", Icon: "mdi-security"},
			"insightful": {Name: "Insightful", Color: "deep-purple lighten-3", Icon: "mdi-database-search"},
			"monitored":  {Name: "Monitored", Color: "teal lighten-3", Icon: "mdi-chart-timeline-variant"},
		},
		platforms: map[string]models.Platform{
			"generic": {Name: "Generic", Color: "grey", Icon: "mdi-google"},
			"ga":      {Name: "Google Analytics", Color: "grey", Icon: "mdi-google-analytics"},
			"ads":     {Name: "Google Ads", Color: "grey", Icon: "mdi-google-ads"},
		},
		templates: map[string]models.Template{
			"empty":      {Label: "Don't know yet, just start with an empty suite!"},
			"trustful":   {Label: "Is my data trustful?"},
			"insightful": {Label: "Is my data insightful?"},
			"monitored":  {Label: "Is my data monitored?", Disabled: true},
		},
		colors: map[string]string{
			"green":  models.ColorGreen,
			"red":    models.ColorRed,
			"orange": models.ColorOrange,
			"blue":   models.ColorBlue,
		},
		drawer: true,
	}
}

// Version returns the application version.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.version
}

// Debug reports whether debug views are enabled.
func (s *Store) Debug() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.debug
}

// FeedbackFormURL returns the feedback form link.
func (s *Store) FeedbackFormURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.feedbackFormURL
}

// Theme returns the theme catalog entry for name, or the generic theme.
func (s *Store) Theme(name string) models.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.ui.themes[name]; ok {
		return t
	}
	return s.ui.themes[GenericKey]
}

// Platform returns the platform catalog entry for name, or the generic
// platform.
func (s *Store) Platform(name string) models.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.ui.platforms[name]; ok {
		return p
	}
	return s.ui.platforms[GenericKey]
}

// Template returns the suite template for name.
func (s *Store) Template(name string) (models.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ui.templates[name]
	return t, ok
}

// Color returns the palette color for name.
func (s *Store) Color(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.ui.colors[name]
	return c, ok
}

// ThemeNames returns the theme keys in sorted order.
func (s *Store) ThemeNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.ui.themes)
}

// PlatformNames returns the platform keys in sorted order.
func (s *Store) PlatformNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.ui.platforms)
}

// TemplateNames returns the template keys in sorted order.
func (s *Store) TemplateNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.ui.templates)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Drawer reports whether the navigation drawer is open.
func (s *Store) Drawer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.drawer
}

// ToggleDrawer flips the drawer state.
func (s *Store) ToggleDrawer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.drawer = !s.ui.drawer
	s.broadcast(Update{Type: UpdateDrawer, Payload: s.ui.drawer})
}

// ShowMessage displays text in the snackbar. Hiding it is up to the view.
func (s *Store) ShowMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.snackbar = models.Snackbar{Show: true, Text: text}
	s.broadcast(Update{Type: UpdateSnackbar, Payload: s.ui.snackbar})
}

// Snackbar returns the snackbar state.
func (s *Store) Snackbar() models.Snackbar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.snackbar
}

// RecordFatalError replaces the fatal error slot with a record built from
// err. The text is the target of the failed request when known, the error
// message otherwise.
func (s *Store) RecordFatalError(err error) {
	if err == nil {
		return
	}
	fatal := fatalErrorFrom(err)

	s.logger.WithError(err).WithFields(logrus.Fields{
		"target": fatal.Text,
		"code":   errors.GetCode(err),
	}).Error("Operation failed")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.fatalError = &fatal
	s.broadcast(Update{Type: UpdateFatalError, Payload: copyFatalError(fatal)})
}

// FatalError returns the last recorded fatal error, or nil. The slot is never
// cleared.
func (s *Store) FatalError() *models.FatalError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ui.fatalError == nil {
		return nil
	}
	fatal := copyFatalError(*s.ui.fatalError)
	return &fatal
}

func fatalErrorFrom(err error) models.FatalError {
	fatal := models.FatalError{
		Text:    err.Error(),
		Details: map[string]interface{}{"code": string(errors.GetCode(err))},
	}

	de, ok := errors.As(err)
	if !ok {
		return fatal
	}
	if de.Message != "" {
		fatal.Text = de.Message
	}
	if url, ok := de.Detail("url"); ok {
		if s, ok := url.(string); ok && s != "" {
			fatal.Text = s
		}
	}
	for k, v := range de.Details {
		fatal.Details[k] = v
	}
	if de.Cause != nil {
		fatal.Details["cause"] = de.Cause.Error()
	}
	return fatal
}

func copyFatalError(f models.FatalError) models.FatalError {
	out := models.FatalError{Text: f.Text}
	if f.Details != nil {
		out.Details = make(map[string]interface{}, len(f.Details))
		for k, v := range f.Details {
			out.Details[k] = v
		}
	}
	return out
}

// AppSettings returns the backend settings.
func (s *Store) AppSettings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui.appSettings
}

// SetAppSettings replaces the backend settings.
func (s *Store) SetAppSettings(settings models.AppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.appSettings = settings
	s.broadcast(Update{Type: UpdateAppSettings, Payload: settings})
}

// FetchAppSettings loads the backend settings.
func (s *Store) FetchAppSettings(ctx context.Context) error {
	settings, err := s.backend.AppSettings(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.SetAppSettings(settings)
	return nil
}

// fail records err in the fatal error slot and returns it.
func (s *Store) fail(err error) error {
	s.RecordFatalError(err)
	return err
}
