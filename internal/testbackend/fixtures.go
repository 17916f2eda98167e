package testbackend

import "github.com/grovetools/dqm/pkg/models"

// DefaultCatalog returns the check types served by a new backend.
func DefaultCatalog() []models.CheckMetadata {
	delegatedView := []models.Parameter{
		{Name: "viewId", DataType: models.DataTypeString, Delegate: true},
		{Name: "startDate", DataType: models.DataTypeDate, Delegate: true},
		{Name: "endDate", DataType: models.DataTypeDate, Delegate: true},
	}
	withView := func(extra ...models.Parameter) []models.Parameter {
		return append(append([]models.Parameter(nil), delegatedView...), extra...)
	}

	return []models.CheckMetadata{
		{
			Name:        "CheckPii",
			Title:       "PII in tracked URI",
			Description: "Detect tracked URLs containing PII related informations.",
			Theme:       "trustful",
			Platform:    "ga",
			GaLevel:     models.GaLevelView,
			Parameters: withView(models.Parameter{
				Name:     "blackList",
				Title:    "PII to avoid",
				DataType: models.DataTypeList,
				Default:  models.Strings("e-mail", "name", "password"),
			}),
			ResultFields: []models.ResultField{
				{Name: "url", Title: "URL", DataType: models.DataTypeString},
				{Name: "param", Title: "Parameter name", DataType: models.DataTypeString},
			},
		},
		{
			Name:        "CheckNbrEventCategories",
			Title:       "Number of event categories",
			Description: "Verify that enough event categories are tracked.",
			Theme:       "trustful",
			Platform:    "ga",
			GaLevel:     models.GaLevelView,
			Parameters: withView(models.Parameter{
				Name:     "threshold",
				Title:    "Minimum number of categories",
				DataType: models.DataTypeInt,
				Default:  models.Int(4),
			}),
			ResultFields: []models.ResultField{
				{Name: "eventCategories", Title: "Event categories", DataType: models.DataTypeInt},
			},
		},
		{
			Name:        "CheckCustomDimensions",
			Title:       "Custom dimensions",
			Description: "Verify a list of custom dimensions to be tracked in GA.",
			Theme:       "insightful",
			Platform:    "ga",
			GaLevel:     models.GaLevelProperty,
			Parameters: []models.Parameter{
				{Name: "accountId", DataType: models.DataTypeString, Delegate: true},
				{Name: "webPropertyId", DataType: models.DataTypeString, Delegate: true},
				{Name: "customDimNames", Title: "Custom dimension names to check", DataType: models.DataTypeList},
			},
			ResultFields: []models.ResultField{
				{Name: "customDimName", Title: "Custom dimension name", DataType: models.DataTypeString},
				{Name: "problem", Title: "Problem detected", DataType: models.DataTypeString},
			},
		},
		{
			Name:        "CheckDummy",
			Title:       "Dummy check",
			Description: "Always succeeds.",
			Theme:       "generic",
			Platform:    "generic",
			GaLevel:     models.GaLevelView,
			ResultFields: []models.ResultField{
				{Name: "ok", Title: "OK", DataType: models.DataTypeBoolean},
			},
		},
	}
}

// DefaultAccounts returns a single account with one property and one view.
func DefaultAccounts() []models.Account {
	return []models.Account{
		{
			ID:   "1000",
			Name: "Demo account",
			WebProperties: []models.WebProperty{
				{
					ID:         "UA-1000-1",
					Name:       "Demo site",
					AccountID:  "1000",
					WebsiteURL: "https://demo.example.com",
					Views: []models.View{
						{
							ID:                  "2000",
							Name:                "All Web Site Data",
							AccountID:           "1000",
							WebPropertyID:       "UA-1000-1",
							WebsiteURL:          "https://demo.example.com",
							Type:                "WEB",
							BotFilteringEnabled: true,
						},
					},
				},
			},
		},
	}
}

// DefaultSettings returns the app settings served by a new backend.
func DefaultSettings() models.AppSettings {
	return models.AppSettings{
		AuthorizedEmails: "analyst@example.com",
		GaServiceAccount: "dqm@demo.iam.gserviceaccount.com",
	}
}
