package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one result row keyed by display column name. Columns are shared
// with the query projection, so key order is stable across rows and endpoints.
type Record struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Record) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as a JSON object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Columns) != len(r.Values) {
		return nil, fmt.Errorf("record has %d columns but %d values", len(r.Columns), len(r.Values))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FilterOptions lists the distinct non-empty values of each filterable dimension.
type FilterOptions struct {
	Categories         []string `json:"categories"`
	AcceptanceStatuses []string `json:"acceptance_statuses"`
	AllocationStatuses []string `json:"allocation_statuses"`
	StateCities        []string `json:"state_cities"`
	FlowTypes          []string `json:"flow_types"`
	TicketTypes        []string `json:"ticket_types"`
}

// DashboardStats holds the dashboard counters.
type DashboardStats struct {
	TotalDevices int64 `json:"total_devices"`
	Allocated    int64 `json:"allocated"`
	Available    int64 `json:"available"`
	Repaired     int64 `json:"repaired"`
	Repairing    int64 `json:"repairing"`
	Faulty       int64 `json:"faulty"`
}
