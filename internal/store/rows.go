package store

import (
	"database/sql"
	"fmt"

	"cpe-tracking-backend/internal/model"
)

// scanRecords reads every row into a Record keyed by the projection's display
// names. Driver column names are not used since Postgres folds unquoted
// aliases to lower case.
func scanRecords(rows *sql.Rows, columns []string) ([]model.Record, error) {
	got, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(got) != len(columns) {
		return nil, fmt.Errorf("expected %d columns, driver returned %d", len(columns), len(got))
	}

	records := make([]model.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		records = append(records, model.Record{Columns: columns, Values: values})
	}
	return records, rows.Err()
}

// scanStrings reads a single-column result, dropping nulls and empty values.
func scanStrings(rows *sql.Rows) ([]string, error) {
	values := make([]string, 0)
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		s := stringValue(v)
		if s == "" {
			continue
		}
		values = append(values, s)
	}
	return values, rows.Err()
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
