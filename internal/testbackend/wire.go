package testbackend

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/grovetools/dqm/pkg/models"
)

// suiteCheck is a check as the backend serializes it inside a suite: the
// metadata travels as a one-element list.
type suiteCheck struct {
	ID            int64                   `json:"id"`
	Name          string                  `json:"name"`
	Active        bool                    `json:"active"`
	Comments      string                  `json:"comments"`
	CheckMetadata []models.CheckMetadata  `json:"checkMetadata"`
	ParamValues   map[string]models.Value `json:"paramValues"`
}

type suiteBody struct {
	ID         *int64                  `json:"id"`
	Name       string                  `json:"name"`
	Created    models.Timestamp        `json:"created"`
	Updated    models.Timestamp        `json:"updated"`
	Checks     []suiteCheck            `json:"checks"`
	Executions []models.SuiteExecution `json:"executions"`
	GaParams   models.GaParams         `json:"gaParams"`
}

func encodeSuite(s models.Suite) suiteBody {
	out := suiteBody{
		ID:         s.ID,
		Name:       s.Name,
		Created:    s.Created,
		Updated:    s.Updated,
		Checks:     make([]suiteCheck, 0, len(s.Checks)),
		Executions: s.Executions,
		GaParams:   s.GaParams,
	}
	if out.Executions == nil {
		out.Executions = []models.SuiteExecution{}
	}
	for _, c := range s.Checks {
		out.Checks = append(out.Checks, suiteCheck{
			ID:            c.ID,
			Name:          c.Name,
			Active:        c.Active,
			Comments:      c.Comments,
			CheckMetadata: []models.CheckMetadata{c.CheckMetadata},
			ParamValues:   c.ParamValues,
		})
	}
	return out
}

// readBody drains the request body and puts it back for the handler.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
