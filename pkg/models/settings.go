package models

// AppSettings holds the backend's application settings.
type AppSettings struct {
	AuthorizedEmails string `json:"authorizedEmails"`
	GaServiceAccount string `json:"gaServiceAccount"`
}
