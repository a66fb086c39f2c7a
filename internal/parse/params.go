package parse

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidParam is returned for request parameters that cannot be used.
var ErrInvalidParam = errors.New("invalid parameter")

// DefaultSortField is the identity column, used whenever sort_by is unknown.
const DefaultSortField = "DEVICE_ID"

// Sort directions accepted in sort_order.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// sortFields is the set of logical field names a listing may be ordered by.
var sortFields = map[string]struct{}{
	"DEVICE_ID": {}, "DEVICE_SERIAL_NO": {}, "MODEL_MAKE": {}, "CATEGORY": {},
	"FROM_WHTO_LOCATOR": {}, "LOCATION_NAME": {}, "STATE_CITY": {}, "LOCATION_MOVEMENT_DATE": {},
	"L1_ACCOUNT_NO": {}, "L1_NAME": {}, "DATE_OF_L1_ACCEPTANCE": {}, "L1_ACCEPTANCE_APP": {},
	"L2_ACCOUNT_NO": {}, "L2_NAME": {}, "DATE_OF_L2_ACCEPTANCE": {}, "L2_ACCEPTANCE_APP": {},
	"ENGG_ACCOUNT_NO": {}, "ENGG_NAME": {}, "L1_ASSIGNED_TO_ENGG": {}, "DATE_OF_ENGG_ASSIGNMENT": {},
	"DATE_OF_ENGG_ACCEPTANCE": {}, "ACCEPTANCE_STATUS": {}, "FLOW_TYPE": {}, "TICKET_NO": {},
	"TICKET_DATE": {}, "TYPE_OF_TICKET": {}, "TICKET_STATUS": {}, "CUSTOMER_ACCOUNT_NO": {},
	"CUSTOMER_NAME": {}, "DATE_OF_CUSTOMER_ALLOCATION": {}, "DEVICE_ALLOCATION_STATUS": {},
	"CURRENT_LOCATION_USER_ID": {}, "LOCATION_FIRST_NAME": {}, "LOCATION_LAST_NAME": {},
	"STATE": {}, "CITY": {}, "STATE_ID": {}, "POID_ID0": {},
}

// IsSortField reports whether name is an accepted sort_by value.
func IsSortField(name string) bool {
	_, ok := sortFields[name]
	return ok
}

// Limits bounds pagination.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultLimits matches the dashboard's page size.
var DefaultLimits = Limits{DefaultPerPage: 50, MaxPerPage: 500}

// Page selects a window of a sorted result set. Page is 1-based.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows skipped before this page. It saturates at
// math.MaxInt, so an absurd page number selects nothing instead of wrapping.
func (p Page) Offset() int {
	if p.PerPage > 0 && p.Number-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Number - 1) * p.PerPage
}

// Params is the normalised form of a device listing request. Empty string
// filters mean "no filter".
type Params struct {
	Search           string
	Category         string
	AcceptanceStatus string
	AllocationStatus string
	StateCity        string
	FlowType         string
	TicketType       string

	SortBy    string
	SortOrder string

	// Page is nil for unpaginated listings.
	Page *Page
}

// Query normalises raw request parameters. When paginated is false, page and
// per_page are ignored.
func Query(values url.Values, paginated bool, limits Limits) (Params, error) {
	p := Params{
		Search:           values.Get("search"),
		Category:         values.Get("category"),
		AcceptanceStatus: values.Get("acceptance_status"),
		AllocationStatus: values.Get("allocation_status"),
		StateCity:        strings.TrimSpace(values.Get("state_city")),
		FlowType:         values.Get("flow_type"),
		TicketType:       values.Get("ticket_type"),
		SortBy:           SortField(values.Get("sort_by")),
		SortOrder:        SortOrder(values.Get("sort_order")),
	}

	if !paginated {
		return p, nil
	}

	if limits.DefaultPerPage <= 0 {
		limits = DefaultLimits
	}

	number, err := positiveInt(values.Get("page"), 1)
	if err != nil {
		return Params{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidParam)
	}
	perPage, err := positiveInt(values.Get("per_page"), limits.DefaultPerPage)
	if err != nil {
		return Params{}, fmt.Errorf("%w: per_page must be a positive integer", ErrInvalidParam)
	}
	if limits.MaxPerPage > 0 && perPage > limits.MaxPerPage {
		perPage = limits.MaxPerPage
	}

	p.Page = &Page{Number: number, PerPage: perPage}
	return p, nil
}

// SortField returns raw if it is a known sort field and DefaultSortField otherwise.
func SortField(raw string) string {
	if IsSortField(raw) {
		return raw
	}
	return DefaultSortField
}

// SortOrder accepts asc/desc in any case and falls back to ascending.
func SortOrder(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), SortDesc) {
		return SortDesc
	}
	return SortAsc
}

func positiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid positive integer %q", raw)
	}
	return n, nil
}
