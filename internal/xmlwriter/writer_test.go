package xmlwriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStandardDocument(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.Tickets = 3
	opts.DirectLines = 1
	doc, err := BuildDocument(opts)
	require.NoError(t, err)

	root := doc.Root()
	assert.Equal(t, "ItxCloseExport", root.Tag)
	assert.NotNil(t, root.SelectElement("STORE_INFO"))

	tickets := root.FindElements(".//TICKET")
	require.Len(t, tickets, 3)
	assert.Equal(t, "3", tickets[2].SelectAttrValue("TICKETNUMBER", ""))
	assert.Equal(t, "1003", tickets[2].SelectAttrValue("OPERATIONNUMBER", ""))
	assert.Len(t, tickets[0].FindElements("SALE_LINES/LINE"), 2)
	assert.Len(t, tickets[0].SelectElements("LINE"), 1)
	assert.Nil(t, tickets[0].SelectElement("TICKET_AUTH_LIST"))
	assert.NotNil(t, tickets[2].SelectElement("TICKET_AUTH_LIST"))

	for _, tag := range []string{"VOIDED_TICKETS", "TRANSACTIONS", "WARNINGS"} {
		assert.NotNil(t, root.SelectElement(tag), tag)
	}
}

func TestBuildCOMDocument(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.Dialect = "com"
	opts.Tickets = 2
	opts.OmitStoreInfo = true
	doc, err := BuildDocument(opts)
	require.NoError(t, err)

	root := doc.Root()
	assert.Equal(t, "ITX_CLOSE_EXPORT_COM", root.Tag)
	assert.Nil(t, root.SelectElement("STORE_INFO"))
	assert.Nil(t, root.SelectElement("WARNINGS"))
	assert.Len(t, root.FindElements(".//SALE_LINE_ITEMS/ITEM"), 4)
	assert.Len(t, root.FindElements(".//CUSTOMER_TICKETS/CT_TICKET"), 2)

	final := root.FindElement(".//ITEM/PRICES/final")
	require.NotNil(t, final)
	assert.Contains(t, final.Text(), ",")
}

func TestGenerateRejectsUnknownDialect(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.Dialect = "LEGACY"
	_, err := Generate(opts)
	assert.Error(t, err)
}

func TestWriteFileRoundTrips(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.Tickets = 5
	opts.RootTag = "CLOSE"
	path := filepath.Join(t.TempDir(), "sample.xml")
	require.NoError(t, WriteFile(path, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	assert.Equal(t, "CLOSE", doc.Root().Tag)
	assert.Len(t, doc.FindElements(".//TICKET"), 5)
}

func TestCommaDecimal(t *testing.T) {
	assert.Equal(t, "12,05", commaDecimal(1205))
	assert.Equal(t, "0,99", commaDecimal(99))
	assert.Equal(t, config.DialectStandard, DefaultGenerateOptions().Dialect)
}
