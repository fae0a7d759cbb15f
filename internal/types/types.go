// =============================================================================
// XML to XLSX Converter - Shared Types
// =============================================================================
//
// This package contains the flat tabular types shared by the extraction
// engine, the assembler and the output sinks:
//   - Record      : one row, an ordered column -> value mapping
//   - Table       : the rows of one named dataset (TICKETS, SALE_LINES, ...)
//   - TableBundle : the named tables produced for one batch
//   - TicketKey   : the four-field composite used to join child rows back
//                   to their ticket
//
// Records carry no fixed struct per table. The column set of a table is
// data: the union of the columns seen, in first-seen order.
//
// =============================================================================

package types

// =============================================================================
// TABLE NAMES
// =============================================================================

// Table names produced by the built-in dialect schemas.
const (
	TableTickets         = "TICKETS"
	TableSaleLines       = "SALE_LINES"
	TableTicketData      = "TICKET_DATA"
	TableTicketCounters  = "TICKET_COUNTERS"
	TableTicketAuths     = "TICKET_AUTHS"
	TablePayments        = "PAYMENTS"
	TableCustomerTickets = "CUSTOMER_TICKETS"
	TableVoidedTickets   = "VOIDED_TICKETS"
	TableTransactions    = "TRANSACTIONS"
	TableWarnings        = "WARNINGS"
	TableStoreInfo       = "STORE_INFO"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is a single flat row. Column order is insertion order; setting an
// existing column overwrites the value in place and keeps its position.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set assigns value to column.
func (r *Record) Set(column, value string) {
	if _, exists := r.values[column]; !exists {
		r.keys = append(r.keys, column)
	}
	r.values[column] = value
}

// Get returns the value of column and whether the column is present.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value of column, or "" when absent.
func (r *Record) Value(column string) string {
	return r.values[column]
}

// Columns returns the column names in insertion order.
func (r *Record) Columns() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.keys)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]string, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// =============================================================================
// TABLE
// =============================================================================

// Table holds the rows of one named dataset for one batch.
type Table struct {
	// Name is the table name, e.g. "SALE_LINES".
	Name string

	columns []string
	seen    map[string]struct{}
	rows    []*Record
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{Name: name, seen: make(map[string]struct{})}
}

// Append adds a row and extends the column set with any new columns.
func (t *Table) Append(r *Record) {
	for _, c := range r.keys {
		if _, ok := t.seen[c]; !ok {
			t.seen[c] = struct{}{}
			t.columns = append(t.columns, c)
		}
	}
	t.rows = append(t.rows, r)
}

// Columns returns the union of all row columns in first-seen order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Records returns the rows in insertion order.
func (t *Table) Records() []*Record {
	return t.rows
}

// Row returns row i laid out on the table's columns. Columns the row does
// not carry are returned as "", so every row of a table has the same shape.
func (t *Table) Row(i int) []string {
	r := t.rows[i]
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = r.values[c]
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable(t.Name)
	for _, r := range t.rows {
		c.Append(r.Clone())
	}
	return c
}

// =============================================================================
// TABLE BUNDLE
// =============================================================================

// TableBundle is the unit produced per batch: a set of named tables kept in
// the order in which each table first received a row.
type TableBundle struct {
	order  []string
	tables map[string]*Table
}

// NewTableBundle returns an empty bundle.
func NewTableBundle() *TableBundle {
	return &TableBundle{tables: make(map[string]*Table)}
}

// Add appends a record to the named table, creating the table on first use.
func (b *TableBundle) Add(name string, r *Record) {
	t, ok := b.tables[name]
	if !ok {
		t = NewTable(name)
		b.tables[name] = t
		b.order = append(b.order, name)
	}
	t.Append(r)
}

// Put stores a complete table. Empty tables are ignored.
func (b *TableBundle) Put(t *Table) {
	if t == nil || t.Len() == 0 {
		return
	}
	if _, ok := b.tables[t.Name]; !ok {
		b.order = append(b.order, t.Name)
	}
	b.tables[t.Name] = t
}

// Table returns the named table, or nil.
func (b *TableBundle) Table(name string) *Table {
	return b.tables[name]
}

// Names returns the table names in order. Only non-empty tables exist in a
// bundle.
func (b *TableBundle) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Tables returns the tables in order.
func (b *TableBundle) Tables() []*Table {
	out := make([]*Table, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.tables[n])
	}
	return out
}

// Rows returns the row count of the named table (0 when absent).
func (b *TableBundle) Rows(name string) int {
	if t, ok := b.tables[name]; ok {
		return t.Len()
	}
	return 0
}

// TotalRows returns the row count across all tables.
func (b *TableBundle) TotalRows() int {
	n := 0
	for _, t := range b.tables {
		n += t.Len()
	}
	return n
}

// Len returns the number of tables.
func (b *TableBundle) Len() int {
	return len(b.order)
}

// =============================================================================
// TICKET KEY
// =============================================================================

// TicketKey is the composite (store id, POS number, operation number, ticket
// number) that joins child rows to their ticket. Any part may be empty.
type TicketKey struct {
	StoreID         string
	POSNumber       string
	OperationNumber string
	TicketNumber    string
}

// String renders the key for logs and map lookups.
func (k TicketKey) String() string {
	return k.StoreID + "/" + k.POSNumber + "/" + k.OperationNumber + "/" + k.TicketNumber
}
