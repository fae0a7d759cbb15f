package xmldoc

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

type candidateKind int

const (
	kindAttr candidateKind = iota
	kindChild
	kindPath
)

// Candidate is one lookup strategy of the field extractor.
type Candidate struct {
	raw  string
	kind candidateKind
	name string     // attribute or child tag
	path etree.Path // element part of a nested path
	attr string     // trailing "@attr" of a nested path
}

// String returns the candidate as written in the configuration.
func (c Candidate) String() string {
	return c.raw
}

// ParseCandidate compiles "@attr", "child" or "a/b/c" (optionally ending in
// "/@attr").
func ParseCandidate(s string) (Candidate, error) {
	s = strings.TrimSpace(s)
	c := Candidate{raw: s}
	switch {
	case s == "" || s == "@":
		return c, fmt.Errorf("empty field candidate")
	case strings.HasPrefix(s, "@"):
		c.kind = kindAttr
		c.name = s[1:]
	case !strings.Contains(s, "/"):
		c.kind = kindChild
		c.name = s
	default:
		c.kind = kindPath
		elemPath := s
		if i := strings.LastIndex(s, "/@"); i >= 0 {
			elemPath = s[:i]
			c.attr = s[i+2:]
		}
		p, err := etree.CompilePath(elemPath)
		if err != nil {
			return c, fmt.Errorf("field candidate %q: %w", s, err)
		}
		c.path = p
	}
	return c, nil
}

// ParseCandidates compiles a candidate list.
func ParseCandidates(list []string) ([]Candidate, error) {
	out := make([]Candidate, 0, len(list))
	for _, s := range list {
		c, err := ParseCandidate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Lookup resolves the candidate on e. The boolean reports whether the
// attribute or element exists at all; the value is trimmed text.
func (c Candidate) Lookup(e *etree.Element) (string, bool) {
	switch c.kind {
	case kindAttr:
		return attrValue(e, c.name)
	case kindChild:
		child := e.SelectElement(c.name)
		if child == nil {
			return "", false
		}
		return Text(child), true
	default:
		target := e.FindElementPath(c.path)
		if target == nil {
			return "", false
		}
		if c.attr != "" {
			return attrValue(target, c.attr)
		}
		return Text(target), true
	}
}

// Extract returns the value of the first candidate present on e, trimmed.
// Absence of every candidate is a normal case and yields "". A present node
// whose text is empty or whitespace also yields "" and ends the search.
func Extract(e *etree.Element, candidates []Candidate) string {
	for _, c := range candidates {
		if v, ok := c.Lookup(e); ok {
			return v
		}
	}
	return ""
}

// Text returns the trimmed character data of e.
func Text(e *etree.Element) string {
	return strings.TrimSpace(e.Text())
}

func attrValue(e *etree.Element, key string) (string, bool) {
	a := e.SelectAttr(key)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// Attributes returns every attribute of e in document order as key/value
// pairs. Namespaced attributes keep their prefix.
func Attributes(e *etree.Element) [][2]string {
	out := make([][2]string, 0, len(e.Attr))
	for _, a := range e.Attr {
		out = append(out, [2]string{a.FullKey(), a.Value})
	}
	return out
}

// ChildTexts returns every direct child element as tag/trimmed-text pairs in
// document order.
func ChildTexts(e *etree.Element) [][2]string {
	children := e.ChildElements()
	out := make([][2]string, 0, len(children))
	for _, c := range children {
		out = append(out, [2]string{c.Tag, Text(c)})
	}
	return out
}
