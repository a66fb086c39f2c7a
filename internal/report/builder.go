// Package report assembles the read-only SQL issued against the CPE tracking
// reporting view. It never executes anything; see package store.
package report

import (
	"strings"

	"cpe-tracking-backend/internal/model"
	"cpe-tracking-backend/internal/parse"
)

// Dialect selects the pagination syntax.
type Dialect string

const (
	// DialectPostgres uses the SQL:2008 OFFSET ... FETCH NEXT form, which the
	// Oracle view also understands.
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor maps a gorm dialector name to a Dialect.
func DialectFor(name string) Dialect {
	if name == string(DialectSQLite) {
		return DialectSQLite
	}
	return DialectPostgres
}

// Query is a parameterised statement. Columns holds the display name of each
// selected column in order.
type Query struct {
	SQL     string
	Args    []any
	Columns []string
}

// NamedQuery is one of several independent sub-queries of a request.
type NamedQuery struct {
	Name string
	Query
}

type column struct {
	expr string
	name string
}

const (
	modelMakeExpr = "MAKE || ' ' || MODEL"
	routeExpr     = "FROM_WH || ' to ' || TO_LOCATOR"
	stateCityExpr = "STATE || ', ' || CITY"
	// stateCityKeyExpr is what the state_city filter and option list compare.
	// It is trimmed like the incoming filter value, so every listed option
	// selects its own rows even when one half is missing.
	stateCityKeyExpr = "TRIM(COALESCE(STATE, '') || ', ' || COALESCE(CITY, ''))"
)

var projection = []column{
	{"DEVICE_ID", "DEVICE_ID"},
	{"DEVICE_SERIAL_NO", "DEVICE_SERIAL_NO"},
	{modelMakeExpr, "MODEL_MAKE"},
	{"CATEGORY", "CATEGORY"},
	{routeExpr, "FROM_WHTO_LOCATOR"},
	{"WH_NAME", "LOCATION_NAME"},
	{stateCityExpr, "STATE_CITY"},
	{"LOCATION_MOVEMENT_DATE", "LOCATION_MOVEMENT_DATE"},
	{"L1_ACCOUNT_NO", "L1_ACCOUNT_NO"},
	{"L1_NAME", "L1_NAME"},
	{"DATE_OF_L1_ACCEPTANCE", "DATE_OF_L1_ACCEPTANCE"},
	{"L1_ACCEPTANCE_APP", "L1_ACCEPTANCE_APP"},
	{"L2_ACCOUNT_NO", "L2_ACCOUNT_NO"},
	{"L2_NAME", "L2_NAME"},
	{"DATE_OF_L2_ACCEPTANCE", "DATE_OF_L2_ACCEPTANCE"},
	{"L2_ACCEPTANCE_APP", "L2_ACCEPTANCE_APP"},
	{"ENGG_ACCOUNT_NO", "ENGG_ACCOUNT_NO"},
	{"ENGG_NAME", "ENGG_NAME"},
	{"L1_ASSIGNED_TO_ENGG", "L1_ASSIGNED_TO_ENGG"},
	{"DATE_OF_ENGG_ASSIGNMENT", "DATE_OF_ENGG_ASSIGNMENT"},
	{"DATE_OF_ENGG_ACCEPTANCE", "DATE_OF_ENGG_ACCEPTANCE"},
	{"ACCEPTANCE_STATUS", "ACCEPTANCE_STATUS"},
	{"FLOW_TYPE", "FLOW_TYPE"},
	{"TICKET_NO", "TICKET_NO"},
	{"TICKET_DATE", "TICKET_DATE"},
	{"TYPE_OF_TICKET", "TYPE_OF_TICKET"},
	{"TICKET_STATUS", "TICKET_STATUS"},
	{"CUSTOMER_ACCOUNT_NO", "CUSTOMER_ACCOUNT_NO"},
	{"CUSTOMER_NAME", "CUSTOMER_NAME"},
	{"DATE_OF_CUSTOMER_ALLOCATION", "DATE_OF_CUSTOMER_ALLOCATION"},
	{"STATE_ID", "DEVICE_ALLOCATION_STATUS"},
	{"CURRENT_LOCATION_USER_ID", "CURRENT_LOCATION_USER_ID"},
	{"LOCATION_FIRST_NAME", "LOCATION_FIRST_NAME"},
	{"LOCATION_LAST_NAME", "LOCATION_LAST_NAME"},
	{"STATE", "STATE"},
	{"CITY", "CITY"},
	{"STATE_ID", "STATE_ID"},
	{"POID_ID0", "POID_ID0"},
}

// sortExpressions resolves logical sort fields that are computed or renamed.
// Every other whitelisted field sorts by the column of the same name.
var sortExpressions = map[string]string{
	"MODEL_MAKE":               "(" + modelMakeExpr + ")",
	"STATE_CITY":               "(" + stateCityExpr + ")",
	"FROM_WHTO_LOCATOR":        "(" + routeExpr + ")",
	"LOCATION_NAME":            "WH_NAME",
	"DEVICE_ALLOCATION_STATUS": "STATE_ID",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Columns returns the display names of the device projection in order.
func Columns() []string {
	names := make([]string, len(projection))
	for i, c := range projection {
		names[i] = c.name
	}
	return names
}

// SortExpression resolves a sort field to the expression used in ORDER BY.
// Unknown fields resolve to the identity column.
func SortExpression(field string) string {
	if !parse.IsSortField(field) {
		field = parse.DefaultSortField
	}
	if expr, ok := sortExpressions[field]; ok {
		return expr
	}
	return field
}

// Builder produces queries against one reporting table.
type Builder struct {
	table      string
	dialect    Dialect
	selectList string
	columns    []string
}

// NewBuilder creates a Builder. The table name is trusted: it comes from
// configuration, which validates it as an identifier.
func NewBuilder(table string, dialect Dialect) *Builder {
	items := make([]string, len(projection))
	for i, c := range projection {
		if c.expr == c.name {
			items[i] = c.expr
		} else {
			items[i] = c.expr + " AS " + c.name
		}
	}
	return &Builder{
		table:      table,
		dialect:    dialect,
		selectList: strings.Join(items, ", "),
		columns:    Columns(),
	}
}

// Devices builds the device listing query. The same statement serves the
// full listing, the paginated listing (p.Page set) and the CSV export.
func (b *Builder) Devices(p parse.Params) Query {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(b.selectList)
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	sb.WriteString(" WHERE 1=1")

	if p.Search != "" {
		sb.WriteString(" AND (DEVICE_ID LIKE ? ESCAPE '\\'" +
			" OR DEVICE_SERIAL_NO LIKE ? ESCAPE '\\'" +
			" OR CUSTOMER_NAME LIKE ? ESCAPE '\\'" +
			" OR (" + modelMakeExpr + ") LIKE ? ESCAPE '\\')")
		pattern := "%" + likeEscaper.Replace(p.Search) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	filters := []struct {
		expr  string
		value string
	}{
		{"CATEGORY", p.Category},
		{"ACCEPTANCE_STATUS", p.AcceptanceStatus},
		{"STATE_ID", p.AllocationStatus},
		{"(" + stateCityKeyExpr + ")", p.StateCity},
		{"FLOW_TYPE", p.FlowType},
		{"TYPE_OF_TICKET", p.TicketType},
	}
	for _, f := range filters {
		if f.value == "" {
			continue
		}
		sb.WriteString(" AND ")
		sb.WriteString(f.expr)
		sb.WriteString(" = ?")
		args = append(args, f.value)
	}

	sortBy := parse.SortField(p.SortBy)
	order := parse.SortOrder(p.SortOrder)
	sb.WriteString(" ORDER BY ")
	sb.WriteString(SortExpression(sortBy))
	sb.WriteString(" ")
	sb.WriteString(order)
	if sortBy != parse.DefaultSortField {
		// Tie-break on the identity column so pages never overlap.
		sb.WriteString(", " + parse.DefaultSortField + " " + order)
	}

	if p.Page != nil {
		switch b.dialect {
		case DialectSQLite:
			sb.WriteString(" LIMIT ? OFFSET ?")
			args = append(args, p.Page.PerPage, p.Page.Offset())
		default:
			sb.WriteString(" OFFSET ? ROWS FETCH NEXT ? ROWS ONLY")
			args = append(args, p.Page.Offset(), p.Page.PerPage)
		}
	}

	return Query{SQL: sb.String(), Args: args, Columns: b.columns}
}

// Filter option names, in response order.
const (
	OptionCategories         = "categories"
	OptionAcceptanceStatuses = "acceptance_statuses"
	OptionAllocationStatuses = "allocation_statuses"
	OptionStateCities        = "state_cities"
	OptionFlowTypes          = "flow_types"
	OptionTicketTypes        = "ticket_types"
)

// FilterOptionQueries returns one DISTINCT query per filterable dimension.
func (b *Builder) FilterOptionQueries() []NamedQuery {
	distinct := func(name, col string) NamedQuery {
		return NamedQuery{Name: name, Query: Query{
			SQL: "SELECT DISTINCT " + col + " FROM " + b.table +
				" WHERE " + col + " IS NOT NULL ORDER BY " + col,
			Columns: []string{col},
		}}
	}

	return []NamedQuery{
		distinct(OptionCategories, "CATEGORY"),
		distinct(OptionAcceptanceStatuses, "ACCEPTANCE_STATUS"),
		distinct(OptionAllocationStatuses, "STATE_ID"),
		{Name: OptionStateCities, Query: Query{
			SQL: "SELECT DISTINCT " + stateCityKeyExpr + " AS STATE_CITY FROM " + b.table +
				" WHERE STATE IS NOT NULL OR CITY IS NOT NULL ORDER BY STATE_CITY",
			Columns: []string{"STATE_CITY"},
		}},
		distinct(OptionFlowTypes, "FLOW_TYPE"),
		distinct(OptionTicketTypes, "TYPE_OF_TICKET"),
	}
}

// StatusValues names the allocation code behind each dashboard counter.
type StatusValues struct {
	Allocated model.AllocationStatus
	Available model.AllocationStatus
	Repaired  model.AllocationStatus
	Repairing model.AllocationStatus
	Faulty    model.AllocationStatus
}

// DefaultStatusValues are the codes the billing system currently uses.
var DefaultStatusValues = StatusValues{
	Allocated: model.AllocationAllocated,
	Available: model.AllocationGood,
	Repaired:  model.AllocationRepaired,
	Repairing: model.AllocationRepairing,
	Faulty:    model.AllocationFaulty,
}

// Dashboard counter names.
const (
	StatTotalDevices = "total_devices"
	StatAllocated    = "allocated"
	StatAvailable    = "available"
	StatRepaired     = "repaired"
	StatRepairing    = "repairing"
	StatFaulty       = "faulty"
)

// StatsQueries returns the total count plus one count per allocation code.
func (b *Builder) StatsQueries(values StatusValues) []NamedQuery {
	count := "SELECT COUNT(*) FROM " + b.table
	byState := func(name string, v model.AllocationStatus) NamedQuery {
		return NamedQuery{Name: name, Query: Query{
			SQL:     count + " WHERE STATE_ID = ?",
			Args:    []any{string(v)},
			Columns: []string{name},
		}}
	}

	return []NamedQuery{
		{Name: StatTotalDevices, Query: Query{SQL: count, Columns: []string{StatTotalDevices}}},
		byState(StatAllocated, values.Allocated),
		byState(StatAvailable, values.Available),
		byState(StatRepaired, values.Repaired),
		byState(StatRepairing, values.Repairing),
		byState(StatFaulty, values.Faulty),
	}
}
