package models

// Palette colors used for execution outcomes.
const (
	ColorGreen  = "#34A853"
	ColorRed    = "#EA4335"
	ColorOrange = "#FBBC04"
	ColorBlue   = "#4285F4"
)

// Theme is a catalog entry grouping check types by intent.
type Theme struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Platform is a catalog entry for the data source a check reads.
type Platform struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Template is a suite creation preset.
type Template struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Snackbar is the transient message area.
type Snackbar struct {
	Show bool   `json:"show"`
	Text string `json:"text"`
}

// FatalError is the global error banner. Text identifies the failing request;
// Details is an opaque diagnostic payload.
type FatalError struct {
	Text    string                 `json:"text"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TreeViewItem is a node of a selectable tree.
type TreeViewItem struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Color    string         `json:"color,omitempty"`
	Icon     string         `json:"icon,omitempty"`
	Children []TreeViewItem `json:"children,omitempty"`
}
