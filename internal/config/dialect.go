// =============================================================================
// XML to XLSX Converter - Dialect Schema Configuration
// =============================================================================
//
// A dialect schema is the data that tells the extraction engine how to
// flatten one close-out export variant:
//   - how to recognise it (root tag markers, marker containers)
//   - where the tickets are and which attributes form the ticket key
//   - one SectionConfig per child table (container, element, columns)
//   - the document-level sections and the store info element
//
// FIELD CANDIDATES:
//   Each field resolves to the first candidate present on the element:
//     "@name"         - attribute "name"
//     "name"          - direct child element "name"
//     "a/b/c"         - nested path below the element
//   A field without candidates uses ["@<name>", "<name>"].
//
// =============================================================================

package config

import (
	"fmt"
	"strings"
)

// Dialect names of the built-in schemas.
const (
	DialectStandard = "STANDARD"
	DialectCOM      = "COM"
)

// AllAttributes in an attribute list copies every attribute of the element
// in document order.
const AllAttributes = "*"

// Invalid value policies for normalized fields.
const (
	OnInvalidBlank = "blank"
	OnInvalidKeep  = "keep"
	OnInvalidSkip  = "skip"
)

// Normalization action types understood by the normalize package.
var ActionTypes = []string{
	"trim", "decimal", "uppercase", "lowercase", "pad_zeros_to_length",
	"prepend_string", "append_string", "replace", "lookup",
}

// =============================================================================
// DIALECT STRUCTURES
// =============================================================================

// DialectConfig describes one export variant.
type DialectConfig struct {
	// Name is the dialect name reported by detection ("STANDARD", "COM").
	Name string `yaml:"dialect"`

	// RootMarkers are substrings of the root tag that identify the dialect.
	RootMarkers []string `yaml:"root_markers"`

	// RootExcludes are substrings that veto a root marker match.
	// STANDARD excludes "_COM" so "ITX_CLOSE_EXPORT_COM" is never STANDARD.
	RootExcludes []string `yaml:"root_excludes"`

	// ContainerMarkers are element tags whose presence anywhere in the tree
	// identifies the dialect when the root tag does not.
	ContainerMarkers []string `yaml:"container_markers"`

	// TicketPath selects the ticket elements relative to the root.
	// Default: ".//TICKET"
	TicketPath string `yaml:"ticket_path"`

	// TicketTable is the table receiving one row per ticket.
	// Default: "TICKETS"
	TicketTable string `yaml:"ticket_table"`

	// TicketAttributes are copied verbatim onto the ticket row.
	// Default: ["*"]
	TicketAttributes []string `yaml:"ticket_attributes"`

	// TicketFields are resolved per ticket after the attributes.
	TicketFields []FieldConfig `yaml:"ticket_fields"`

	// Key maps ticket attributes to the join columns injected into every
	// child row. Exactly four entries: store, POS, operation, ticket number.
	Key []KeyColumn `yaml:"key"`

	// Sections are the per-ticket child tables.
	Sections []SectionConfig `yaml:"sections"`

	// DocumentSections are tables read once per document from the root.
	// They are emitted with the first batch only.
	DocumentSections []SectionConfig `yaml:"document_sections"`

	// StoreInfoPath selects the store info element relative to the root.
	// Default: "STORE_INFO"
	StoreInfoPath string `yaml:"store_info_path"`
}

// KeyColumn maps one ticket attribute to its join column name.
type KeyColumn struct {
	Attribute string `yaml:"attribute"`
	Column    string `yaml:"column"`
}

// SectionConfig describes one child table.
type SectionConfig struct {
	// Table is the output table name.
	Table string `yaml:"table"`

	// Container is the path of the element holding the items, relative to
	// the ticket (or to the root for document sections). Empty means the
	// items are direct children.
	Container string `yaml:"container"`

	// Element is the item tag.
	Element string `yaml:"element"`

	// Direct also scans direct children of the ticket matching Element.
	// How both locations combine is decided by the line strategy.
	Direct bool `yaml:"direct"`

	// Attributes are copied verbatim. "*" copies all attributes.
	Attributes []string `yaml:"attributes"`

	// Fields are resolved through the field candidates.
	Fields []FieldConfig `yaml:"fields"`

	// ChildText copies every direct child as tag -> trimmed text.
	ChildText bool `yaml:"child_text"`

	// TextColumn, when set, stores the element's own text in that column.
	TextColumn string `yaml:"text_column"`

	// KeyFirst places the ticket key columns before the attributes.
	KeyFirst bool `yaml:"key_first"`

	// Collections are nested lists folded into one delimited column.
	Collections []CollectionConfig `yaml:"collections"`
}

// FieldConfig describes one resolved column.
type FieldConfig struct {
	// Name is the output column name.
	Name string `yaml:"name"`

	// Candidates are tried in order. Default: ["@<name>", "<name>"].
	Candidates []string `yaml:"candidates"`

	// Normalize is applied to the resolved value, in order. Empty values are
	// never normalized.
	Normalize []Action `yaml:"normalize"`

	// OnInvalid decides what happens when normalization fails.
	// Valid values: "blank" (default), "keep", "skip" (element is skipped).
	OnInvalid string `yaml:"on_invalid"`
}

// CollectionConfig folds nested items into one delimited string column.
type CollectionConfig struct {
	// Column is the output column name.
	Column string `yaml:"column"`

	// Item is the tag of the nested entries, matched at any depth.
	Item string `yaml:"item"`

	// Value is the child (or "@attr") of each entry holding the value.
	Value string `yaml:"value"`

	// Suffix is appended to every retained value (e.g. "%").
	Suffix string `yaml:"suffix"`

	// Separator joins the retained values. Default: "|"
	Separator string `yaml:"separator"`
}

// Action is one normalization step applied to a field value.
type Action struct {
	// Type is one of ActionTypes.
	Type string `yaml:"type"`

	// Value is the action parameter (pad length, string to prepend, ...).
	Value string `yaml:"value"`

	// Find is the substring replaced by the "replace" action.
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values for "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// applyDialectDefaults sets default values for any unset dialect options.
func applyDialectDefaults(dc *DialectConfig) {
	dc.Name = strings.ToUpper(strings.TrimSpace(dc.Name))
	if dc.TicketPath == "" {
		dc.TicketPath = ".//TICKET"
	}
	if dc.TicketTable == "" {
		dc.TicketTable = "TICKETS"
	}
	if dc.TicketAttributes == nil {
		dc.TicketAttributes = []string{AllAttributes}
	}
	if dc.StoreInfoPath == "" {
		dc.StoreInfoPath = "STORE_INFO"
	}
	if len(dc.Key) == 0 {
		dc.Key = defaultKey()
	}
	defaultFields(dc.TicketFields)
	for i := range dc.Sections {
		defaultSection(&dc.Sections[i])
	}
	for i := range dc.DocumentSections {
		defaultSection(&dc.DocumentSections[i])
	}
}

func defaultSection(s *SectionConfig) {
	defaultFields(s.Fields)
	for i := range s.Collections {
		if s.Collections[i].Separator == "" {
			s.Collections[i].Separator = "|"
		}
	}
}

func defaultFields(fields []FieldConfig) {
	for i := range fields {
		if len(fields[i].Candidates) == 0 {
			fields[i].Candidates = []string{"@" + fields[i].Name, fields[i].Name}
		}
		if fields[i].OnInvalid == "" {
			fields[i].OnInvalid = OnInvalidBlank
		}
	}
}

// Validate checks the dialect for structural mistakes.
func (dc *DialectConfig) Validate() error {
	if dc.Name == "" {
		return fmt.Errorf("dialect name is required")
	}
	if len(dc.Key) != 4 {
		return fmt.Errorf("dialect %s: key must have exactly 4 columns, got %d", dc.Name, len(dc.Key))
	}
	for _, k := range dc.Key {
		if k.Attribute == "" || k.Column == "" {
			return fmt.Errorf("dialect %s: key entries need attribute and column", dc.Name)
		}
	}
	if err := validateFields(dc.Name, dc.TicketTable, dc.TicketFields); err != nil {
		return err
	}

	seen := map[string]bool{dc.TicketTable: true}
	all := append(append([]SectionConfig{}, dc.Sections...), dc.DocumentSections...)
	for _, s := range all {
		if s.Table == "" || s.Element == "" {
			return fmt.Errorf("dialect %s: sections need table and element", dc.Name)
		}
		if seen[s.Table] {
			return fmt.Errorf("dialect %s: duplicate table %s", dc.Name, s.Table)
		}
		seen[s.Table] = true
		if err := validateFields(dc.Name, s.Table, s.Fields); err != nil {
			return err
		}
		for _, c := range s.Collections {
			if c.Column == "" || c.Item == "" || c.Value == "" {
				return fmt.Errorf("dialect %s: table %s: collections need column, item and value", dc.Name, s.Table)
			}
		}
	}
	return nil
}

func validateFields(dialect, table string, fields []FieldConfig) error {
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("dialect %s: table %s: field without name", dialect, table)
		}
		switch f.OnInvalid {
		case OnInvalidBlank, OnInvalidKeep, OnInvalidSkip:
		default:
			return fmt.Errorf("dialect %s: field %s: unknown on_invalid %q", dialect, f.Name, f.OnInvalid)
		}
		for _, a := range f.Normalize {
			if !knownAction(a.Type) {
				return fmt.Errorf("dialect %s: field %s: unknown normalize type %q", dialect, f.Name, a.Type)
			}
		}
	}
	return nil
}

func knownAction(t string) bool {
	for _, a := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}
