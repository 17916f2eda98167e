package models

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a string the backend may send as false when unset.
type OptionalString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *OptionalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("true")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = OptionalString(str)
	return nil
}

// View is a GA reporting view.
type View struct {
	ID                             string         `json:"id"`
	Name                           string         `json:"name"`
	AccountID                      string         `json:"accountId"`
	WebPropertyID                  string         `json:"webPropertyId"`
	WebsiteURL                     string         `json:"websiteUrl"`
	Type                           string         `json:"type"`
	ECommerceTracking              bool           `json:"eCommerceTracking"`
	EnhancedECommerceTracking      bool           `json:"enhancedECommerceTracking"`
	BotFilteringEnabled            bool           `json:"botFilteringEnabled"`
	ExcludeQueryParameters         OptionalString `json:"excludeQueryParameters"`
	SiteSearchQueryParameters      OptionalString `json:"siteSearchQueryParameters"`
	StripSiteSearchQueryParameters bool           `json:"stripSiteSearchQueryParameters"`
}

// WebProperty is a GA property holding views.
type WebProperty struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccountID  string `json:"accountId"`
	WebsiteURL string `json:"websiteUrl"`
	Views      []View `json:"views"`
}

// Account is the root of the GA hierarchy.
type Account struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	WebProperties []WebProperty `json:"webProperties"`
}

// FindView looks a view up by id across all accounts.
func FindView(accounts []Account, viewID string) (View, bool) {
	for _, a := range accounts {
		for _, p := range a.WebProperties {
			for _, v := range p.Views {
				if v.ID == viewID {
					return v, true
				}
			}
		}
	}
	return View{}, false
}

// ScopeForView returns the account/property/view triple of a view.
func ScopeForView(v View) GaScope {
	return GaScope{
		ViewID:        v.ID,
		WebPropertyID: v.WebPropertyID,
		AccountID:     v.AccountID,
	}
}

// AccountsTree flattens the hierarchy into tree items for pickers. View items
// carry the view id so selections map back to a GaScope.
func AccountsTree(accounts []Account) []TreeViewItem {
	items := make([]TreeViewItem, 0, len(accounts))
	for _, a := range accounts {
		account := TreeViewItem{ID: a.ID, Name: a.Name}
		for _, p := range a.WebProperties {
			property := TreeViewItem{ID: p.ID, Name: p.Name}
			for _, v := range p.Views {
				property.Children = append(property.Children, TreeViewItem{ID: v.ID, Name: v.Name})
			}
			account.Children = append(account.Children, property)
		}
		items = append(items, account)
	}
	return items
}
