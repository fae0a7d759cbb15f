package extract

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectString(t *testing.T, xml string) Detection {
	t.Helper()
	schemas, err := CompileAll(config.DefaultDialects())
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return Detect(doc.Root(), schemas)
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		xml  string
		want string
	}{
		{"com root", `<ITX_CLOSE_EXPORT_COM/>`, config.DialectCOM},
		{"standard root", `<ItxCloseExport/>`, config.DialectStandard},
		{"standard upper root", `<ITX_CLOSE_EXPORT_V2/>`, config.DialectStandard},
		{"root beats container", `<ItxCloseExport><CUSTOMER_TICKETS/></ItxCloseExport>`, config.DialectStandard},
		{"com container", `<EXPORT><A><SALE_LINE_ITEMS/></A></EXPORT>`, config.DialectCOM},
		{"com container wins over standard", `<EXPORT><SALE_LINES/><CUSTOMER_TICKETS/></EXPORT>`, config.DialectCOM},
		{"standard container", `<EXPORT><WARNINGS/></EXPORT>`, config.DialectStandard},
		{"unknown", `<EXPORT><TICKET/></EXPORT>`, DialectUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := detectString(t, tc.xml)
			assert.Equal(t, tc.want, got.Name)
			assert.Equal(t, got.Name != DialectUnknown, got.Known())
			again := detectString(t, tc.xml)
			assert.Equal(t, got.Name, again.Name)
			assert.Equal(t, got.Reason, again.Reason)
		})
	}
}

func TestUnknownDialectKeepsLargerResult(t *testing.T) {
	doc := openString(t, newEngine(t, ""), `<EXPORT>
		<TICKET TICKETNUMBER="1"><ITEM><qty>2</qty></ITEM><ITEM><qty>1</qty></ITEM></TICKET>
	</EXPORT>`)

	assert.True(t, doc.Ambiguous)
	assert.Equal(t, config.DialectCOM, doc.Dialect())

	batches := collect(t, doc, 10)
	require.Len(t, batches, 1)
	lines := batches[0].Bundle.Table(types.TableSaleLines)
	require.NotNil(t, lines)
	assert.Equal(t, "2", lines.Records()[0].Value("quantity"))
}

func TestUnknownDialectTieKeepsStandard(t *testing.T) {
	doc := openString(t, newEngine(t, ""), `<EXPORT><TICKET TICKETNUMBER="1"/></EXPORT>`)
	assert.True(t, doc.Ambiguous)
	assert.Equal(t, config.DialectStandard, doc.Dialect())
	assert.Equal(t, 1, doc.TicketCount())
}

func TestUnknownDialectEmpty(t *testing.T) {
	doc := openString(t, newEngine(t, ""), `<EXPORT><NOTHING/></EXPORT>`)
	assert.True(t, doc.Ambiguous)
	assert.True(t, doc.Empty())
	assert.Empty(t, collect(t, doc, 10))
}
