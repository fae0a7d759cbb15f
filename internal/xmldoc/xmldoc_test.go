package xmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load([]byte("\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?><ROOT a=\"1\"/>"))
	require.NoError(t, err)
	assert.Equal(t, "ROOT", doc.Root().Tag)

	doc, err = Load([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><ROOT>caf\xe9</ROOT>"))
	require.NoError(t, err)
	assert.Equal(t, "café", Text(doc.Root()))

	_, err = Load([]byte("<ROOT><open></ROOT>"))
	assert.Error(t, err)

	_, err = Load([]byte("   "))
	assert.Error(t, err)
}

func TestDeclaredEncoding(t *testing.T) {
	assert.Equal(t, "windows-1252", DeclaredEncoding([]byte(`<?xml version="1.0" encoding='windows-1252'?><a/>`)))
	assert.Equal(t, "", DeclaredEncoding([]byte(`<a/>`)))
}

func TestExtractCandidates(t *testing.T) {
	doc, err := Load([]byte(`<LINE code="A1" empty="">
		<qty> 3 </qty>
		<blank>   </blank>
		<PRICES><final currency="EUR">9,99</final></PRICES>
	</LINE>`))
	require.NoError(t, err)
	line := doc.Root()

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"attribute", []string{"@code"}, "A1"},
		{"child trimmed", []string{"qty"}, "3"},
		{"nested path", []string{"PRICES/final"}, "9,99"},
		{"nested attribute", []string{"PRICES/final/@currency"}, "EUR"},
		{"first present wins", []string{"@missing", "qty", "@code"}, "3"},
		{"present but blank ends search", []string{"blank", "qty"}, ""},
		{"empty attribute ends search", []string{"@empty", "@code"}, ""},
		{"nothing present", []string{"@nope", "nope", "a/b"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := ParseCandidates(tt.candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Extract(line, cs))
		})
	}
}

func TestParseCandidateErrors(t *testing.T) {
	_, err := ParseCandidate("")
	assert.Error(t, err)
	_, err = ParseCandidate("@")
	assert.Error(t, err)

	c, err := ParseCandidate(" @code ")
	require.NoError(t, err)
	assert.Equal(t, "@code", c.String())
}

func TestAttributesAndChildTexts(t *testing.T) {
	doc, err := Load([]byte(`<T xmlns:x="urn:x" b="2" a="1" x:c="3"><one> 1 </one><two/></T>`))
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"xmlns:x", "urn:x"}, {"b", "2"}, {"a", "1"}, {"x:c", "3"}}, Attributes(doc.Root()))
	assert.Equal(t, [][2]string{{"one", "1"}, {"two", ""}}, ChildTexts(doc.Root()))
}
