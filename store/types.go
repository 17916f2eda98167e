// Package store holds the client-side application state: the UI slice
// (catalogs, drawer, snackbar, fatal error banner, app settings) and the
// business slice (active suite, accounts, check metadata catalog).
package store

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateSuite          UpdateType = "suite"
	UpdateChecks         UpdateType = "checks"
	UpdateExecutions     UpdateType = "executions"
	UpdateGaParams       UpdateType = "ga_params"
	UpdateAccounts       UpdateType = "accounts"
	UpdateChecksMetadata UpdateType = "checks_metadata"
	UpdateAppSettings    UpdateType = "app_settings"
	UpdateDrawer         UpdateType = "drawer"
	UpdateSnackbar       UpdateType = "snackbar"
	UpdateFatalError     UpdateType = "fatal_error"
)

// Update represents a change to the state. Payload holds a copy of the new
// value of the changed field.
type Update struct {
	Type    UpdateType
	Payload interface{}
}

// subscriberBuffer is the capacity of each subscription channel.
const subscriberBuffer = 100
