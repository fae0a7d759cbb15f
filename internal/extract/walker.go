package extract

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
)

// maxRecordedErrors bounds the element errors kept per walk; the skipped
// count is always exact.
const maxRecordedErrors = 50

// WalkStats summarizes one walk.
type WalkStats struct {
	Tickets int
	Skipped int

	// Errors holds the first skipped elements' errors, for logging.
	Errors []error
}

func (s *WalkStats) skip(err error) {
	s.Skipped++
	if len(s.Errors) < maxRecordedErrors {
		s.Errors = append(s.Errors, err)
	}
}

func (s *WalkStats) merge(o WalkStats) {
	s.Tickets += o.Tickets
	s.Skipped += o.Skipped
	for _, err := range o.Errors {
		if len(s.Errors) >= maxRecordedErrors {
			break
		}
		s.Errors = append(s.Errors, err)
	}
}

// Walker turns ticket elements into table fragments under one schema.
// A Walker holds no per-document state.
type Walker struct {
	schema   *Schema
	strategy string
}

// NewWalker returns a walker for schema. An empty strategy means
// config.LineStrategyBoth.
func NewWalker(schema *Schema, strategy string) *Walker {
	if strategy == "" {
		strategy = config.LineStrategyBoth
	}
	return &Walker{schema: schema, strategy: strategy}
}

// Schema returns the schema the walker extracts with.
func (w *Walker) Schema() *Schema {
	return w.schema
}

// Walk projects tickets and every ticket section below them. offset is the
// document-wide index of tickets[0] and only labels errors.
//
// A ticket that fails to project is skipped together with its children, so
// no child row is ever emitted without its ticket. A failing child element
// is skipped alone.
//
// RETURNS:
//   - A bundle holding the ticket table then each section table, in schema
//     order, empty tables omitted.
//   - Walk statistics.
func (w *Walker) Walk(tickets []*etree.Element, offset int) (*types.TableBundle, WalkStats) {
	var stats WalkStats
	s := w.schema

	ticketTable := types.NewTable(s.ticketTable)
	sectionTables := make([]*types.Table, len(s.sections))
	for i, sec := range s.sections {
		sectionTables[i] = types.NewTable(sec.table)
	}

	for i, t := range tickets {
		idx := offset + i
		rec, err := safeProject(func() (*types.Record, error) {
			return Project(t, s.ticket, nil)
		})
		if err != nil {
			stats.skip(&ElementError{Table: s.ticketTable, Ticket: idx, Element: t.Tag, Err: err})
			continue
		}
		ticketTable.Append(rec)
		stats.Tickets++

		key := s.ParentKey(t)
		for j := range s.sections {
			sec := &s.sections[j]
			for _, e := range sec.elements(t, w.strategy) {
				rec, err := safeProject(func() (*types.Record, error) {
					return projectSection(e, sec, key)
				})
				if err != nil {
					stats.skip(&ElementError{Table: sec.table, Ticket: idx, Element: e.Tag, Err: err})
					continue
				}
				sectionTables[j].Append(rec)
			}
		}
	}

	bundle := types.NewTableBundle()
	bundle.Put(ticketTable)
	for _, t := range sectionTables {
		bundle.Put(t)
	}
	return bundle, stats
}

// WalkDocument projects the document-level sections found below root.
func (w *Walker) WalkDocument(root *etree.Element) (*types.TableBundle, WalkStats) {
	var stats WalkStats
	bundle := types.NewTableBundle()
	for j := range w.schema.docSections {
		sec := &w.schema.docSections[j]
		for _, e := range sec.elements(root, w.strategy) {
			rec, err := safeProject(func() (*types.Record, error) {
				return projectSection(e, sec, nil)
			})
			if err != nil {
				stats.skip(&ElementError{Table: sec.table, Ticket: -1, Element: e.Tag, Err: err})
				continue
			}
			bundle.Add(sec.table, rec)
		}
	}
	return bundle, stats
}

// ParentKey returns the ticket key columns of t, in schema order. Missing
// key attributes are empty strings.
func (s *Schema) ParentKey(t *etree.Element) *types.Record {
	key := types.NewRecord()
	for _, k := range s.key {
		v := ""
		if a := t.SelectAttr(k.Attribute); a != nil {
			v = a.Value
		}
		key.Set(k.Column, v)
	}
	return key
}

// Key returns the ticket attribute to key column mapping.
func (s *Schema) Key() []config.KeyColumn {
	out := make([]config.KeyColumn, len(s.key))
	copy(out, s.key)
	return out
}

// TicketTable returns the name of the ticket table.
func (s *Schema) TicketTable() string {
	return s.ticketTable
}

func projectSection(e *etree.Element, sec *section, key *types.Record) (*types.Record, error) {
	rec, err := Project(e, sec.projection, key)
	if err != nil {
		return nil, err
	}
	if len(sec.collections) == 0 {
		return rec, nil
	}
	for _, c := range sec.collections {
		rec.Set(c.column, c.fold(e))
	}
	// Collections may not shadow the key either.
	mergeKey(rec, key)
	return rec, nil
}

// fold joins the non-empty designated values of every matching descendant.
func (c collection) fold(e *etree.Element) string {
	var parts []string
	for _, item := range e.FindElementsPath(c.item) {
		v, _ := c.value.Lookup(item)
		if v == "" {
			continue
		}
		parts = append(parts, v+c.suffix)
	}
	return strings.Join(parts, c.sep)
}

// safeProject runs fn and converts a panic into an element error.
func safeProject(fn func() (*types.Record, error)) (rec *types.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("%w: panic: %v", ErrElementExtraction, r)
		}
	}()
	return fn()
}
