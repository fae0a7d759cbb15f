// =============================================================================
// XML to XLSX Converter - Extraction Engine
// =============================================================================
//
// This package flattens one close-out export document into named tables.
//
// PIPELINE:
//   1. Load     : Decode the bytes and parse them into an element tree
//   2. Detect   : Classify the document as one of the configured dialects
//   3. Batch    : Partition the ticket elements into windows
//   4. Walk     : Project each window's tickets and sections into records
//
// The engine does no I/O and holds no shared mutable state: an Engine may be
// used from several goroutines, a Document belongs to one.
//
// =============================================================================

package extract

import (
	"errors"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmldoc"
)

// =============================================================================
// DOCUMENT STATE
// =============================================================================

// State is the lifecycle position of a document.
type State int

const (
	StateStart State = iota
	StateDialectDetected
	StateBatchProduced
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateDialectDetected:
		return "DIALECT_DETECTED"
	case StateBatchProduced:
		return "BATCH_PRODUCED"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// =============================================================================
// ENGINE
// =============================================================================

// Options configures an Engine.
type Options struct {
	// Dialects in detection priority order. Nil uses config.DefaultDialects.
	Dialects []*config.DialectConfig

	// LineStrategy is config.LineStrategyBoth or config.LineStrategyNestedFirst.
	LineStrategy string
}

// Engine holds the compiled dialect schemas.
type Engine struct {
	schemas  []*Schema
	strategy string
}

// NewEngine compiles the configured dialects.
func NewEngine(opts Options) (*Engine, error) {
	dialects := opts.Dialects
	if dialects == nil {
		dialects = config.DefaultDialects()
	}
	if len(dialects) == 0 {
		return nil, errors.New("no dialects configured")
	}
	schemas, err := CompileAll(dialects)
	if err != nil {
		return nil, err
	}
	strategy := opts.LineStrategy
	if strategy == "" {
		strategy = config.LineStrategyBoth
	}
	return &Engine{schemas: schemas, strategy: strategy}, nil
}

// Schemas returns the compiled schemas in priority order.
func (e *Engine) Schemas() []*Schema {
	return e.schemas
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is one parsed export ready to be batched.
type Document struct {
	Name      string
	Detection Detection

	// Ambiguous is set when no marker identified the dialect and both
	// interpretations were compared.
	Ambiguous bool

	root      *etree.Element
	walker    *Walker
	tickets   []*etree.Element
	storeInfo *types.Table
	docTables *types.TableBundle
	docStats  WalkStats
	state     State
}

// Open parses data and resolves its dialect.
//
// PARAMETERS:
//   - name: The document name used in errors and logs.
//   - data: The raw document bytes.
//
// RETURNS:
//   - The document. A document without tickets is returned without error;
//     Empty reports it.
//   - A *DocumentParseError when data is not well-formed XML.
func (e *Engine) Open(name string, data []byte) (*Document, error) {
	doc := &Document{Name: name, state: StateStart}

	tree, err := xmldoc.Load(data)
	if err != nil {
		return nil, &DocumentParseError{Document: name, Err: err}
	}
	doc.root = tree.Root()

	doc.Detection = Detect(doc.root, e.schemas)
	if doc.Detection.Known() {
		doc.bind(NewWalker(doc.Detection.schema, e.strategy))
	} else {
		doc.Ambiguous = true
		doc.resolve(e.schemas, e.strategy)
	}
	doc.state = StateDialectDetected
	return doc, nil
}

// resolve binds the schema whose full walk yields the most rows. On a tie
// the later schema in priority order wins. When every interpretation is
// empty the document is bound to the last schema and reports Empty.
func (d *Document) resolve(schemas []*Schema, strategy string) {
	best, bestRows := -1, -1
	for i, s := range schemas {
		w := NewWalker(s, strategy)
		tickets := d.root.FindElementsPath(s.ticketPath)
		bundle, _ := w.Walk(tickets, 0)
		docTables, _ := w.WalkDocument(d.root)
		rows := bundle.TotalRows() + docTables.TotalRows()
		if rows >= bestRows {
			best, bestRows = i, rows
		}
	}
	if best < 0 {
		return
	}
	s := schemas[best]
	d.bind(NewWalker(s, strategy))
	d.Detection = Detection{
		Name:   s.Name,
		Reason: "no marker, fallback kept the larger result",
		schema: s,
	}
	if bestRows == 0 {
		d.tickets = nil
	}
}

func (d *Document) bind(w *Walker) {
	d.walker = w
	s := w.Schema()
	d.tickets = d.root.FindElementsPath(s.ticketPath)
	d.docTables, d.docStats = w.WalkDocument(d.root)
	d.storeInfo = storeInfoTable(d.root, s)
}

// storeInfoTable builds the single-row store table from the direct children
// of the store element. Nil when absent or childless.
func storeInfoTable(root *etree.Element, s *Schema) *types.Table {
	e := root.FindElementPath(s.storeInfoPath)
	if e == nil {
		return nil
	}
	rec, err := Project(e, Projection{ChildText: true}, nil)
	if err != nil || rec.Len() == 0 {
		return nil
	}
	t := types.NewTable(types.TableStoreInfo)
	t.Append(rec)
	return t
}

// Dialect returns the name of the schema the document is extracted with.
func (d *Document) Dialect() string {
	return d.Detection.Name
}

// TicketCount returns the document-wide ticket count.
func (d *Document) TicketCount() int {
	return len(d.tickets)
}

// Empty reports a document with nothing to export.
func (d *Document) Empty() bool {
	return len(d.tickets) == 0
}

// State returns the document's lifecycle state.
func (d *Document) State() State {
	return d.state
}

// StoreInfo returns the store table, or nil. Callers must not modify it.
func (d *Document) StoreInfo() *types.Table {
	return d.storeInfo
}

// Key returns the ticket key mapping of the bound schema.
func (d *Document) Key() []config.KeyColumn {
	return d.walker.Schema().Key()
}

// TicketTable returns the ticket table name of the bound schema.
func (d *Document) TicketTable() string {
	return d.walker.Schema().TicketTable()
}

// Batches returns a forward-only batch sequence over the document's tickets.
// Each call starts a new sequence from the first ticket.
func (d *Document) Batches(size int) *Batcher {
	return newBatcher(d, size)
}
