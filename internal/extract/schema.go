package extract

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmldoc"
)

// Schema is a dialect configuration compiled for extraction: candidate
// lookups and element paths are parsed once, not per element.
type Schema struct {
	Name string

	rootMarkers      []string
	rootExcludes     []string
	containerMarkers []etree.Path

	ticketPath    etree.Path
	ticketTable   string
	ticket        Projection
	key           []config.KeyColumn
	sections      []section
	docSections   []section
	storeInfoPath etree.Path
}

type section struct {
	table        string
	container    etree.Path
	hasContainer bool
	element      string
	direct       bool
	anywhere     bool
	items        etree.Path
	projection   Projection
	collections  []collection
}

// elements returns the section's elements below owner, in document order.
// Tickets own ticket sections; the root owns document sections.
func (s *section) elements(owner *etree.Element, strategy string) []*etree.Element {
	if s.anywhere {
		return owner.FindElementsPath(s.items)
	}
	if !s.hasContainer {
		return owner.SelectElements(s.element)
	}

	containers := owner.FindElementsPath(s.container)
	var nested []*etree.Element
	for _, c := range containers {
		nested = append(nested, c.SelectElements(s.element)...)
	}
	if !s.direct {
		return nested
	}
	if strategy == config.LineStrategyNestedFirst && len(containers) > 0 {
		return nested
	}
	return append(nested, owner.SelectElements(s.element)...)
}

type collection struct {
	column string
	item   etree.Path
	value  xmldoc.Candidate
	suffix string
	sep    string
}

// Compile turns a dialect configuration into a Schema.
func Compile(dc *config.DialectConfig) (*Schema, error) {
	if err := dc.Validate(); err != nil {
		return nil, err
	}

	s := &Schema{
		Name:         dc.Name,
		rootMarkers:  dc.RootMarkers,
		rootExcludes: dc.RootExcludes,
		ticketTable:  dc.TicketTable,
		key:          dc.Key,
	}

	var err error
	for _, m := range dc.ContainerMarkers {
		p, err := etree.CompilePath(".//" + m)
		if err != nil {
			return nil, fmt.Errorf("dialect %s: container marker %q: %w", dc.Name, m, err)
		}
		s.containerMarkers = append(s.containerMarkers, p)
	}
	if s.ticketPath, err = etree.CompilePath(dc.TicketPath); err != nil {
		return nil, fmt.Errorf("dialect %s: ticket path: %w", dc.Name, err)
	}
	if s.storeInfoPath, err = etree.CompilePath(dc.StoreInfoPath); err != nil {
		return nil, fmt.Errorf("dialect %s: store info path: %w", dc.Name, err)
	}
	if s.ticket, err = compileProjection(dc.TicketAttributes, dc.TicketFields, false, ""); err != nil {
		return nil, fmt.Errorf("dialect %s: ticket: %w", dc.Name, err)
	}
	for _, sc := range dc.Sections {
		sec, err := compileSection(sc, "")
		if err != nil {
			return nil, fmt.Errorf("dialect %s: %w", dc.Name, err)
		}
		s.sections = append(s.sections, sec)
	}
	for _, sc := range dc.DocumentSections {
		sec, err := compileSection(sc, ".//")
		if err != nil {
			return nil, fmt.Errorf("dialect %s: %w", dc.Name, err)
		}
		s.docSections = append(s.docSections, sec)
	}
	return s, nil
}

// CompileAll compiles dialects in order.
func CompileAll(dialects []*config.DialectConfig) ([]*Schema, error) {
	out := make([]*Schema, 0, len(dialects))
	for _, dc := range dialects {
		s, err := Compile(dc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// compileSection compiles one section; prefix is prepended to the container
// path (".//" for document sections searched anywhere below the root).
func compileSection(sc config.SectionConfig, prefix string) (section, error) {
	sec := section{
		table:   sc.Table,
		element: sc.Element,
		direct:  sc.Direct,
	}
	var err error
	switch {
	case sc.Container != "":
		sec.hasContainer = true
		if sec.container, err = etree.CompilePath(prefix + sc.Container); err != nil {
			return sec, fmt.Errorf("table %s: container: %w", sc.Table, err)
		}
	case prefix != "":
		// A document section without a container matches its element anywhere.
		sec.anywhere = true
		if sec.items, err = etree.CompilePath(prefix + sc.Element); err != nil {
			return sec, fmt.Errorf("table %s: element: %w", sc.Table, err)
		}
	}
	if sec.projection, err = compileProjection(sc.Attributes, sc.Fields, sc.ChildText, sc.TextColumn); err != nil {
		return sec, fmt.Errorf("table %s: %w", sc.Table, err)
	}
	sec.projection.KeyFirst = sc.KeyFirst
	for _, cc := range sc.Collections {
		c := collection{column: cc.Column, suffix: cc.Suffix, sep: cc.Separator}
		if c.sep == "" {
			c.sep = "|"
		}
		if c.item, err = etree.CompilePath(".//" + cc.Item); err != nil {
			return sec, fmt.Errorf("table %s: collection %s: %w", sc.Table, cc.Column, err)
		}
		if c.value, err = xmldoc.ParseCandidate(cc.Value); err != nil {
			return sec, fmt.Errorf("table %s: collection %s: %w", sc.Table, cc.Column, err)
		}
		sec.collections = append(sec.collections, c)
	}
	return sec, nil
}

func compileProjection(attributes []string, fields []config.FieldConfig, childText bool, textColumn string) (Projection, error) {
	p := Projection{ChildText: childText, TextColumn: textColumn}
	for _, a := range attributes {
		if a == config.AllAttributes {
			p.AllAttributes = true
			continue
		}
		p.Attributes = append(p.Attributes, a)
	}
	for _, fc := range fields {
		cands, err := xmldoc.ParseCandidates(fc.Candidates)
		if err != nil {
			return p, fmt.Errorf("field %s: %w", fc.Name, err)
		}
		p.Fields = append(p.Fields, Field{
			Name:       fc.Name,
			Candidates: cands,
			Normalize:  fc.Normalize,
			OnInvalid:  fc.OnInvalid,
		})
	}
	return p, nil
}
