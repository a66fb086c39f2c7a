package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSelect is returned by Guard for anything other than a plain SELECT.
var ErrNotSelect = errors.New("only SELECT queries are allowed")

var mutatingKeywords = []string{"INSERT", "UPDATE", "DELETE", "DROP", "TRUNCATE"}

// Guard is a textual check run on every statement before execution. It does
// not replace parameter binding: the statement must start with SELECT and
// must not mention a mutating keyword anywhere, even inside an identifier.
func Guard(sql string) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if !strings.HasPrefix(upper, "SELECT") {
		return ErrNotSelect
	}
	for _, kw := range mutatingKeywords {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("%w: statement contains %s", ErrNotSelect, kw)
		}
	}
	return nil
}

// GuardAll runs Guard over a batch and stops at the first rejection.
func GuardAll(queries ...NamedQuery) error {
	for _, q := range queries {
		if err := Guard(q.SQL); err != nil {
			return fmt.Errorf("%s: %w", q.Name, err)
		}
	}
	return nil
}
