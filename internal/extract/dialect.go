package extract

import (
	"strings"

	"github.com/beevik/etree"
)

// DialectUnknown is reported when neither root tag nor container markers
// identify a dialect.
const DialectUnknown = "UNKNOWN"

// Detection is the outcome of dialect classification.
type Detection struct {
	// Name is the detected dialect, or DialectUnknown.
	Name string

	// Reason says which marker decided, for logs and the detect command.
	Reason string

	schema *Schema
}

// Known reports whether a dialect was identified from markers.
func (d Detection) Known() bool {
	return d.schema != nil
}

// Detect classifies a parsed document. Schemas are consulted in priority
// order, first by root tag and then by container elements anywhere in the
// tree, so a root-tag match always beats a container match.
func Detect(root *etree.Element, schemas []*Schema) Detection {
	for _, s := range schemas {
		if s.matchesRoot(root.Tag) {
			return Detection{Name: s.Name, Reason: "root tag " + root.Tag, schema: s}
		}
	}
	for _, s := range schemas {
		if marker, ok := s.matchesContainers(root); ok {
			return Detection{Name: s.Name, Reason: "container " + marker, schema: s}
		}
	}
	return Detection{Name: DialectUnknown, Reason: "no marker"}
}

func (s *Schema) matchesRoot(tag string) bool {
	for _, ex := range s.rootExcludes {
		if strings.Contains(tag, ex) {
			return false
		}
	}
	for _, m := range s.rootMarkers {
		if strings.Contains(tag, m) {
			return true
		}
	}
	return false
}

func (s *Schema) matchesContainers(root *etree.Element) (string, bool) {
	for _, p := range s.containerMarkers {
		if e := root.FindElementPath(p); e != nil {
			return e.Tag, true
		}
	}
	return "", false
}
