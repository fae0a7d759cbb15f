package extract

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/normalize"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmldoc"
)

// Field is one declared column resolved through candidate lookups.
type Field struct {
	Name       string
	Candidates []xmldoc.Candidate
	Normalize  []config.Action
	OnInvalid  string
}

// Projection declares which columns an element contributes to its record.
type Projection struct {
	// Attributes are copied verbatim, absent ones as "".
	Attributes []string

	// AllAttributes copies every attribute present on the element.
	AllAttributes bool

	Fields []Field

	// ChildText adds one column per direct child element, tag -> text.
	ChildText bool

	// TextColumn, if set, receives the element's own text.
	TextColumn string

	// KeyFirst moves the parent key ahead of the attributes.
	KeyFirst bool
}

// Project builds the record for one element.
//
// Column order is: attributes, parent key, declared fields, child text,
// own text. With p.KeyFirst the parent key comes before the attributes. The
// parent key is applied last as well so that on a name clash the parent's
// value wins while the column keeps its first position.
//
// PARAMETERS:
//   - e: The element to project.
//   - p: The projection declared for the element's table.
//   - parentKey: The owning ticket's key columns, or nil for tickets and
//     document-level rows.
//
// RETURNS:
//   - The record.
//   - An error wrapping ErrElementExtraction when a field with the "skip"
//     policy holds a value its normalization rejects.
func Project(e *etree.Element, p Projection, parentKey *types.Record) (*types.Record, error) {
	rec := types.NewRecord()

	if p.KeyFirst {
		mergeKey(rec, parentKey)
	}
	if p.AllAttributes {
		for _, kv := range xmldoc.Attributes(e) {
			rec.Set(kv[0], kv[1])
		}
	}
	for _, name := range p.Attributes {
		v := ""
		if a := e.SelectAttr(name); a != nil {
			v = a.Value
		}
		rec.Set(name, v)
	}

	mergeKey(rec, parentKey)

	for _, f := range p.Fields {
		v, err := resolveField(e, f)
		if err != nil {
			return nil, err
		}
		rec.Set(f.Name, v)
	}

	if p.ChildText {
		for _, kv := range xmldoc.ChildTexts(e) {
			rec.Set(kv[0], kv[1])
		}
	}
	if p.TextColumn != "" {
		rec.Set(p.TextColumn, xmldoc.Text(e))
	}

	mergeKey(rec, parentKey)
	return rec, nil
}

// resolveField extracts and normalizes one field according to its invalid
// value policy.
func resolveField(e *etree.Element, f Field) (string, error) {
	raw := xmldoc.Extract(e, f.Candidates)
	if len(f.Normalize) == 0 {
		return raw, nil
	}
	v, err := normalize.Apply(raw, f.Normalize)
	if err == nil {
		return v, nil
	}
	switch f.OnInvalid {
	case config.OnInvalidKeep:
		return raw, nil
	case config.OnInvalidSkip:
		return "", fmt.Errorf("%w: field %s: %v", ErrElementExtraction, f.Name, err)
	default:
		return "", nil
	}
}

func mergeKey(rec, key *types.Record) {
	if key == nil {
		return
	}
	for _, col := range key.Columns() {
		rec.Set(col, key.Value(col))
	}
}
