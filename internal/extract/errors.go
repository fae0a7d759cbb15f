package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for the extraction taxonomy.
var (
	// ErrDocumentParse marks a document that is not well-formed XML. Fatal
	// for that document only.
	ErrDocumentParse = errors.New("document parse error")

	// ErrElementExtraction marks one element that could not be projected.
	// Recovered by skipping the element.
	ErrElementExtraction = errors.New("element extraction error")

	// ErrEmptyDocument marks a document without tickets. Not a failure: the
	// document has nothing to export.
	ErrEmptyDocument = errors.New("no tickets in document")

	// ErrDialectAmbiguous marks a document whose dialect could not be read
	// from its markers and had to be resolved by comparing both parses.
	ErrDialectAmbiguous = errors.New("dialect ambiguous")

	// ErrInvalidBatchSize is returned by a batcher created with size < 1.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// DocumentParseError reports a malformed document.
type DocumentParseError struct {
	Document string
	Err      error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Document, e.Err)
}

// Unwrap lets errors.Is match both ErrDocumentParse and the cause.
func (e *DocumentParseError) Unwrap() []error {
	return []error{ErrDocumentParse, e.Err}
}

// ElementError reports one skipped element.
type ElementError struct {
	// Table is the table the element would have populated.
	Table string

	// Ticket is the document-wide 0-based index of the owning ticket, or -1
	// for document-level rows.
	Ticket int

	// Element is the element's tag.
	Element string

	Err error
}

func (e *ElementError) Error() string {
	if e.Ticket < 0 {
		return fmt.Sprintf("%s: %s: %v", e.Table, e.Element, e.Err)
	}
	return fmt.Sprintf("%s: ticket %d: %s: %v", e.Table, e.Ticket, e.Element, e.Err)
}

// Unwrap lets errors.Is match both ErrElementExtraction and the cause.
func (e *ElementError) Unwrap() []error {
	return []error{ErrElementExtraction, e.Err}
}
