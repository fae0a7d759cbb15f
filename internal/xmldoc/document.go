// =============================================================================
// XML to XLSX Converter - Document Loading
// =============================================================================
//
// This module turns the raw bytes of one close-out export into an in-memory
// element tree. The whole tree is held for the lifetime of the document;
// there is no streaming parse.
//
// DECODING:
//   - Documents declaring UTF-8 (or nothing) are cleaned first: byte order
//     marks are removed and invalid UTF-8 sequences are replaced by U+FFFD,
//     so a few corrupt bytes never reject a whole export.
//   - Documents declaring another charset (ISO-8859-1, windows-1252, ...)
//     are decoded by the XML reader through golang.org/x/net/html/charset.
//
// =============================================================================

package xmldoc

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// declaredEncoding captures the encoding of the XML declaration.
var declaredEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// Decode returns data as clean UTF-8 when the document is UTF-8 (declared or
// implied). Documents declaring another charset are returned unchanged.
func Decode(data []byte) []byte {
	if enc := DeclaredEncoding(data); enc != "" && !isUTF8Label(enc) {
		return data
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		// The UTF-8 decoder replaces bad sequences instead of failing; keep
		// the input if a transformer error still surfaces.
		return data
	}
	return out
}

// DeclaredEncoding returns the encoding named in the XML declaration, or "".
func DeclaredEncoding(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	m := declaredEncoding.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return string(m[1])
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(label) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

func isUTF16Label(label string) bool {
	return strings.HasPrefix(strings.ToLower(strings.ReplaceAll(label, "_", "-")), "utf-16")
}

// charsetReader is handed to the XML reader for declared non-UTF-8 charsets.
// UTF-16 input has already been converted by Decode's BOM handling.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if isUTF16Label(label) {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

// Load decodes and parses one document.
//
// PARAMETERS:
//   - data: The raw document bytes.
//
// RETURNS:
//   - The parsed document; its Root() is never nil.
//   - An error if the bytes are not a well-formed XML document.
func Load(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader

	if err := doc.ReadFromBytes(Decode(data)); err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("malformed XML: no root element")
	}
	return doc, nil
}
