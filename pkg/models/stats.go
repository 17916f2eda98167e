package models

import (
	"encoding/json"
	"fmt"
)

// statsHeader is the first row of every stats table sent by the backend.
var statsHeader = []string{"day", "executions", "successes", "fails"}

// DailyStat aggregates the executions of one day.
type DailyStat struct {
	Day        Date `json:"day"`
	Executions int  `json:"executions"`
	Successes  int  `json:"successes"`
	Fails      int  `json:"fails"`
}

// StatsTable is the per-day execution statistics. On the wire it is a table
// whose first row is the header.
type StatsTable []DailyStat

// Totals sums all rows.
func (t StatsTable) Totals() DailyStat {
	var total DailyStat
	for _, row := range t {
		total.Executions += row.Executions
		total.Successes += row.Successes
		total.Fails += row.Fails
	}
	return total
}

// MarshalJSON encodes the header row followed by one row per day.
func (t StatsTable) MarshalJSON() ([]byte, error) {
	rows := make([][]interface{}, 0, len(t)+1)
	header := make([]interface{}, len(statsHeader))
	for i, h := range statsHeader {
		header[i] = h
	}
	rows = append(rows, header)
	for _, row := range t {
		rows = append(rows, []interface{}{row.Day.String(), row.Executions, row.Successes, row.Fails})
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes the table form, skipping the header row.
func (t *StatsTable) UnmarshalJSON(data []byte) error {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("stats must be a table: %w", err)
	}

	out := make(StatsTable, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) != len(statsHeader) {
			return fmt.Errorf("stats row %d: expected %d columns, got %d", i, len(statsHeader), len(row))
		}
		var stat DailyStat
		if err := json.Unmarshal(row[0], &stat.Day); err != nil {
			return fmt.Errorf("stats row %d: %w", i, err)
		}
		for j, dst := range []*int{&stat.Executions, &stat.Successes, &stat.Fails} {
			if err := json.Unmarshal(row[j+1], dst); err != nil {
				return fmt.Errorf("stats row %d column %s: %w", i, statsHeader[j+1], err)
			}
		}
		out = append(out, stat)
	}
	*t = out
	return nil
}
