// =============================================================================
// XML to XLSX Converter - Output Sinks
// =============================================================================
//
// A sink receives the table bundle of one batch and persists it. Batches are
// independent output units: no sink merges two batches into one table.
//
// SINKS:
//   - xlsx   : One workbook per batch, one sheet per table
//   - csv    : One directory per batch, one CSV file per table
//   - sqlite : One database, one SQL table per table name, rows appended
//   - memory : Keeps the units in memory (dry runs and tests)
//
// =============================================================================

package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
)

// Unit is one batch handed to a sink.
type Unit struct {
	// Document is the input file name, e.g. "close_0042.xml".
	Document string

	// Base is the output base name, the document name without extension.
	Base string

	// Dialect is the dialect the document was extracted with.
	Dialect string

	// Index is the 1-based batch index.
	Index int

	// TotalTickets is the document-wide ticket count.
	TotalTickets int

	Bundle *types.TableBundle
}

// PartName returns "<base>_partNNN" for the unit.
func (u Unit) PartName() string {
	return PartName(u.Base, u.Index)
}

// PartName returns "<base>_partNNN" with the index zero-padded to 3 digits.
func PartName(base string, index int) string {
	return fmt.Sprintf("%s_part%03d", base, index)
}

// Sink persists units.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Write persists one unit and returns where it went.
	Write(ctx context.Context, u Unit) (string, error)

	// Close releases the sink's resources.
	Close() error
}

// New creates the sinks for the configured formats.
//
// PARAMETERS:
//   - cfg: The main configuration (formats, output directory, database path).
//
// RETURNS:
//   - The sinks, in the configured order.
//   - An error if a format is unknown or a sink cannot be opened. Sinks opened
//     before the failure are closed.
func New(cfg *config.MainConfig) ([]Sink, error) {
	var sinks []Sink
	for _, format := range cfg.Formats {
		var (
			s   Sink
			err error
		)
		switch strings.ToLower(format) {
		case config.FormatXLSX:
			s = NewXLSX(cfg.OutputDir)
		case config.FormatCSV:
			s = NewCSV(cfg.OutputDir).WithDelimiter(cfg.CSVDelimiter)
		case config.FormatSQLite:
			s, err = OpenSQLite(cfg.SQLitePath)
		default:
			err = fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink and returns the first error.
func CloseAll(sinks []Sink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s sink: %w", s.Name(), err)
		}
	}
	return first
}

// =============================================================================
// MEMORY SINK
// =============================================================================

// Memory keeps every unit it receives.
type Memory struct {
	mu    sync.Mutex
	Units []Unit
}

// Name implements Sink.
func (m *Memory) Name() string { return "memory" }

// Write implements Sink.
func (m *Memory) Write(ctx context.Context, u Unit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.Units = append(m.Units, u)
	m.mu.Unlock()
	return u.PartName(), nil
}

// Close implements Sink.
func (m *Memory) Close() error { return nil }
