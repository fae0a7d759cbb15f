// =============================================================================
// XML to XLSX Converter - Linkage Validation
// =============================================================================
//
// This module checks the join invariant of the flattened tables: every child
// row (sale line, payment, ticket data, ...) carries the four ticket key
// columns, and that key must identify exactly one ticket of the same
// document. A child may sit in a different batch than its ticket, so the
// checker accumulates across every batch of a document.
//
// SEVERITIES:
//   - error   : A child row whose key matches no ticket
//   - warning : Two tickets sharing one key (their children are ambiguous)
//
// Tables that do not carry every key column (STORE_INFO, document-level
// sections) are not child tables and are ignored.
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// maxErrors bounds the errors kept per document; counts stay exact.
const maxErrors = 200

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single linkage violation.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Table is the table holding the offending row.
	Table string

	// Batch is the 1-based batch index of the row.
	Batch int

	// Row is the 0-based row index within the batch table.
	Row int

	// Key is the row's ticket key.
	Key types.TicketKey

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s batch %d row %d, key %s: %s",
		strings.ToUpper(e.Severity),
		e.Table,
		e.Batch,
		e.Row,
		e.Key,
		e.Message,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors. Warnings do not invalidate.
	IsValid bool

	// Errors contains the first violations, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of orphan child rows.
	ErrorCount int

	// WarningCount is the number of duplicate ticket keys.
	WarningCount int

	// TicketsChecked is the number of ticket rows seen.
	TicketsChecked int

	// RowsChecked is the number of child rows checked.
	RowsChecked int
}

// =============================================================================
// LINKAGE CHECKER
// =============================================================================

type pendingRow struct {
	table string
	batch int
	row   int
	key   types.TicketKey
}

// LinkageChecker accumulates the batches of one document.
type LinkageChecker struct {
	ticketTable string
	key         []config.KeyColumn

	tickets map[types.TicketKey]int
	pending []pendingRow
	result  ValidationResult
}

// NewLinkageChecker returns a checker for a document whose tickets live in
// ticketTable and whose key maps ticket attributes to child key columns.
func NewLinkageChecker(ticketTable string, key []config.KeyColumn) *LinkageChecker {
	return &LinkageChecker{
		ticketTable: ticketTable,
		key:         key,
		tickets:     make(map[types.TicketKey]int),
	}
}

// Add records the rows of one batch.
func (c *LinkageChecker) Add(batch int, bundle *types.TableBundle) {
	for _, table := range bundle.Tables() {
		if table.Name == c.ticketTable {
			for _, r := range table.Records() {
				k := c.ticketKey(r)
				c.tickets[k]++
				c.result.TicketsChecked++
				if c.tickets[k] == 2 {
					c.record(&ValidationError{
						Severity: SeverityWarning,
						Table:    table.Name,
						Batch:    batch,
						Key:      k,
						Message:  "duplicate ticket key",
					})
				}
			}
			continue
		}
		if !c.isChildTable(table) {
			continue
		}
		for i, r := range table.Records() {
			c.pending = append(c.pending, pendingRow{table: table.Name, batch: batch, row: i, key: c.childKey(r)})
		}
	}
}

// Result checks every child row against the tickets seen so far.
func (c *LinkageChecker) Result() *ValidationResult {
	for _, p := range c.pending {
		c.result.RowsChecked++
		if c.tickets[p.key] > 0 {
			continue
		}
		c.record(&ValidationError{
			Severity: SeverityError,
			Table:    p.table,
			Batch:    p.batch,
			Row:      p.row,
			Key:      p.key,
			Message:  "no ticket with this key",
		})
	}
	c.pending = nil

	res := c.result
	res.IsValid = res.ErrorCount == 0
	return &res
}

func (c *LinkageChecker) record(e *ValidationError) {
	if e.Severity == SeverityError {
		c.result.ErrorCount++
	} else {
		c.result.WarningCount++
	}
	if len(c.result.Errors) < maxErrors {
		c.result.Errors = append(c.result.Errors, e)
	}
}

func (c *LinkageChecker) isChildTable(t *types.Table) bool {
	cols := make(map[string]bool)
	for _, name := range t.Columns() {
		cols[name] = true
	}
	for _, k := range c.key {
		if !cols[k.Column] {
			return false
		}
	}
	return len(c.key) > 0
}

func (c *LinkageChecker) ticketKey(r *types.Record) types.TicketKey {
	return c.makeKey(r, func(k config.KeyColumn) string { return k.Attribute })
}

func (c *LinkageChecker) childKey(r *types.Record) types.TicketKey {
	return c.makeKey(r, func(k config.KeyColumn) string { return k.Column })
}

// makeKey reads the key parts in declared order: store, POS, operation,
// ticket.
func (c *LinkageChecker) makeKey(r *types.Record, column func(config.KeyColumn) string) types.TicketKey {
	var parts [4]string
	for i, k := range c.key {
		if i >= len(parts) {
			break
		}
		parts[i] = r.Value(column(k))
	}
	return types.TicketKey{
		StoreID:         parts[0],
		POSNumber:       parts[1],
		OperationNumber: parts[2],
		TicketNumber:    parts[3],
	}
}

// CheckLinkage validates a complete document given as its batch bundles in
// order.
func CheckLinkage(bundles []*types.TableBundle, ticketTable string, key []config.KeyColumn) *ValidationResult {
	c := NewLinkageChecker(ticketTable, key)
	for i, b := range bundles {
		c.Add(i+1, b)
	}
	return c.Result()
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(errors)))
	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// WriteErrorLog writes validation errors to a log file.
//
// PARAMETERS:
//   - errors: The validation errors to write.
//   - filePath: The path to the output file.
//
// RETURNS:
//   - An error if writing fails.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.WriteString(FormatErrors(errors)); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Close()
}
