package converter

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/extract"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/sink"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/validation"
)

// ProgressFunc receives the fraction of a document handed to the sinks.
// It stays below 1 until the last batch has been written, then reports 1.
type ProgressFunc func(document string, fraction float64)

// BatchSummary reports one written batch.
type BatchSummary struct {
	Index     int
	Tickets   int
	SaleLines int
	Rows      int
	Skipped   int
	Outputs   []string
	Progress  float64
}

// Summary reports one assembled document.
type Summary struct {
	Document     string
	Dialect      string
	Ambiguous    bool
	TotalTickets int
	Batches      []BatchSummary
	Outputs      []string
	Skipped      int
	SaleLines    int
	Rows         int
	Linkage      *validation.ValidationResult
}

// Assembler hands every batch of a document to the sinks. Batches are never
// merged: each one is written as its own output unit.
type Assembler struct {
	sinks    []sink.Sink
	logger   Logger
	progress ProgressFunc
}

// NewAssembler returns an assembler writing to sinks. With no sinks it only
// counts (dry run).
func NewAssembler(sinks []sink.Sink, logger Logger) *Assembler {
	return &Assembler{sinks: sinks, logger: logger}
}

// OnProgress registers a progress callback.
func (a *Assembler) OnProgress(fn ProgressFunc) *Assembler {
	a.progress = fn
	return a
}

// Assemble consumes the batch sequence of doc.
//
// PARAMETERS:
//   - ctx: Checked between batches; cancellation stops the sequence.
//   - doc: The opened document.
//   - base: The output base name ("<base>_partNNN").
//   - size: The batch size.
//
// RETURNS:
//   - The summary, also on error, covering the batches written so far.
//   - extract.ErrEmptyDocument for a document without tickets, a sink error,
//     or the context error.
func (a *Assembler) Assemble(ctx context.Context, doc *extract.Document, base string, size int) (*Summary, error) {
	summary := &Summary{
		Document:     doc.Name,
		Dialect:      doc.Dialect(),
		Ambiguous:    doc.Ambiguous,
		TotalTickets: doc.TicketCount(),
	}
	if doc.Empty() {
		return summary, extract.ErrEmptyDocument
	}

	checker := validation.NewLinkageChecker(doc.TicketTable(), doc.Key())
	batches := doc.Batches(size)
	for batches.Next() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		batch := batches.Batch()
		unit := sink.Unit{
			Document:     doc.Name,
			Base:         base,
			Dialect:      doc.Dialect(),
			Index:        batch.Index,
			TotalTickets: batch.TotalTickets,
			Bundle:       batch.Bundle,
		}

		bs := BatchSummary{
			Index:     batch.Index,
			Tickets:   batch.Bundle.Rows(doc.TicketTable()),
			SaleLines: batch.Bundle.Rows(types.TableSaleLines),
			Rows:      batch.Bundle.TotalRows(),
			Skipped:   batch.Stats.Skipped,
		}
		for _, s := range a.sinks {
			out, err := s.Write(ctx, unit)
			if err != nil {
				return summary, fmt.Errorf("batch %d: %s sink: %w", batch.Index, s.Name(), err)
			}
			bs.Outputs = append(bs.Outputs, out)
		}
		for _, err := range batch.Stats.Errors {
			a.logger.Debug("Skipped element: %v", err)
		}

		checker.Add(batch.Index, batch.Bundle)
		bs.Progress = extract.Progress(batch.Index, size, batch.TotalTickets)
		summary.Batches = append(summary.Batches, bs)
		summary.Outputs = append(summary.Outputs, bs.Outputs...)
		summary.Skipped += bs.Skipped
		summary.SaleLines += bs.SaleLines
		summary.Rows += bs.Rows

		a.logger.Info("Batch %d: %d tickets, %d sale lines (%.0f%%)",
			bs.Index, bs.Tickets, bs.SaleLines, bs.Progress*100)
		a.report(doc.Name, bs.Progress)
	}
	if err := batches.Err(); err != nil {
		return summary, err
	}

	summary.Linkage = checker.Result()
	a.report(doc.Name, 1)
	return summary, nil
}

func (a *Assembler) report(document string, fraction float64) {
	if a.progress != nil {
		a.progress(document, fraction)
	}
}
