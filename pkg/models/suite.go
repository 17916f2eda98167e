package models

// GaScope is the account/property/view triple a suite runs against.
type GaScope struct {
	ViewID        string `json:"viewId"`
	WebPropertyID string `json:"webPropertyId"`
	AccountID     string `json:"accountId"`
}

// GaParams is the analytics date range and scope of a suite.
type GaParams struct {
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	Scope     []GaScope `json:"scope"`
}

// SelectedViews returns the view ids of the scope, in order.
func (p GaParams) SelectedViews() []string {
	views := make([]string, len(p.Scope))
	for i, s := range p.Scope {
		views[i] = s.ViewID
	}
	return views
}

// Suite is a named collection of checks with its execution history and GA
// scope. ID is nil until the backend has created it.
type Suite struct {
	ID         *int64           `json:"id"`
	Name       string           `json:"name"`
	Created    Timestamp        `json:"created"`
	Updated    Timestamp        `json:"updated"`
	Checks     []Check          `json:"checks"`
	Executions []SuiteExecution `json:"executions"`
	GaParams   GaParams         `json:"gaParams"`
}

// NewSuite returns the empty, not yet persisted suite.
func NewSuite() Suite {
	return Suite{
		Checks:     []Check{},
		Executions: []SuiteExecution{},
		GaParams:   GaParams{Scope: []GaScope{}},
	}
}

// IDValue returns the suite id and whether it is set.
func (s Suite) IDValue() (int64, bool) {
	if s.ID == nil {
		return 0, false
	}
	return *s.ID, true
}

// CheckByID returns the check with the given id.
func (s Suite) CheckByID(id int64) (Check, bool) {
	for _, c := range s.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}

// LastExecution returns the most recently appended execution.
func (s Suite) LastExecution() (SuiteExecution, bool) {
	if len(s.Executions) == 0 {
		return SuiteExecution{}, false
	}
	return s.Executions[len(s.Executions)-1], true
}

// Clone returns a deep copy of s.
func (s Suite) Clone() Suite {
	out := s
	if s.ID != nil {
		id := *s.ID
		out.ID = &id
	}
	if s.Checks != nil {
		out.Checks = make([]Check, len(s.Checks))
		for i, c := range s.Checks {
			out.Checks[i] = c.Clone()
		}
	}
	if s.Executions != nil {
		out.Executions = make([]SuiteExecution, len(s.Executions))
		for i, e := range s.Executions {
			out.Executions[i] = e.Clone()
		}
	}
	out.GaParams = s.GaParams.Clone()
	return out
}

// Clone returns a deep copy of p.
func (p GaParams) Clone() GaParams {
	out := p
	if p.Scope != nil {
		out.Scope = append([]GaScope{}, p.Scope...)
	}
	return out
}

// SuitePreview is the light suite shape used for listings.
type SuitePreview struct {
	ID                   *int64    `json:"id"`
	Name                 string    `json:"name"`
	Created              Timestamp `json:"created"`
	Updated              Timestamp `json:"updated"`
	LastExecutionSuccess *bool     `json:"lastExecutionSuccess"`
}

// SuiteCreationData is the body of a suite creation request.
type SuiteCreationData struct {
	Name       string `json:"name"`
	TemplateID string `json:"templateId"`
}

// Int64Ptr returns a pointer to id.
func Int64Ptr(id int64) *int64 {
	return &id
}
