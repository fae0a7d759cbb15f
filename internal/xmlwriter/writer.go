// =============================================================================
// XML to XLSX Converter - Sample Export Writer
// =============================================================================
//
// This module generates synthetic close-out exports in either dialect. They
// feed the `sample` command and the test suites, so every value is derived
// from the ticket and line indexes: the same options always produce the same
// bytes.
//
// XML STRUCTURE (STANDARD):
//
//   <ItxCloseExport>
//     <STORE_INFO>
//       <storeId>0042</storeId>
//       <storeName>Store 0042</storeName>
//     </STORE_INFO>
//     <VALID_TICKETS>
//       <TICKET STOREID="0042" POSNUMBER="1" OPERATIONNUMBER="1001" TICKETNUMBER="1">
//         <serial>S1</serial>
//         <totalSale>12,50</totalSale>
//         <SALE_LINES>
//           <LINE lineNumber="1">
//             <quantity>1</quantity>
//             <LINE_TAX_LIST>
//               <LINE_TAX><taxPercent>21</taxPercent></LINE_TAX>
//             </LINE_TAX_LIST>
//           </LINE>
//         </SALE_LINES>
//         <MEDIA_LINES><MEDIA mediaId="1"><amount>12,50</amount></MEDIA></MEDIA_LINES>
//       </TICKET>
//     </VALID_TICKETS>
//     <VOIDED_TICKETS>...</VOIDED_TICKETS>
//   </ItxCloseExport>
//
// The COM variant uses ITX_CLOSE_EXPORT_COM, SALE_LINE_ITEMS/ITEM with
// ITEM_INFO and PRICES children, ITEM_TAX, and CUSTOMER_TICKETS.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for sample generation.
type GenerateOptions struct {
	// Dialect is config.DialectStandard or config.DialectCOM.
	// Default: "STANDARD"
	Dialect string

	// RootTag overrides the dialect's root tag. Use an unrelated tag to
	// produce documents that can only be classified by their containers.
	RootTag string

	// Tickets is the number of TICKET elements.
	Tickets int

	// LinesPerTicket is the number of lines inside the line container.
	// Default: 2
	LinesPerTicket int

	// DirectLines is the number of lines placed directly under the ticket.
	DirectLines int

	// TaxesPerLine is the number of tax entries per line.
	// Default: 1
	TaxesPerLine int

	// PaymentsPerTicket is the number of MEDIA elements per ticket.
	// Default: 1
	PaymentsPerTicket int

	// StoreID is written on every ticket and in STORE_INFO.
	// Default: "0042"
	StoreID string

	// OmitStoreInfo leaves out the STORE_INFO element.
	OmitStoreInfo bool

	// DocumentSections adds voided tickets, transactions and warnings
	// (STANDARD only).
	DocumentSections bool

	// Indent is the number of spaces per level. Zero writes a single line.
	// Default: 2
	Indent int

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Dialect:               config.DialectStandard,
		Tickets:               10,
		LinesPerTicket:        2,
		TaxesPerLine:          1,
		PaymentsPerTicket:     1,
		StoreID:               "0042",
		DocumentSections:      true,
		Indent:                2,
		IncludeXMLDeclaration: true,
	}
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// Generate renders a sample export.
//
// PARAMETERS:
//   - options: The generation options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if the dialect is unknown or serialization fails.
func Generate(options GenerateOptions) ([]byte, error) {
	doc, err := BuildDocument(options)
	if err != nil {
		return nil, err
	}
	if options.Indent > 0 {
		doc.Indent(options.Indent)
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize sample: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders a sample export to path.
func WriteFile(path string, options GenerateOptions) error {
	data, err := Generate(options)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sample %s: %w", path, err)
	}
	return nil
}

// BuildDocument builds the element tree of a sample export.
func BuildDocument(options GenerateOptions) (*etree.Document, error) {
	dialect := strings.ToUpper(options.Dialect)
	if dialect == "" {
		dialect = config.DialectStandard
	}
	if dialect != config.DialectStandard && dialect != config.DialectCOM {
		return nil, fmt.Errorf("unknown dialect %q", options.Dialect)
	}
	if options.StoreID == "" {
		options.StoreID = "0042"
	}

	doc := etree.NewDocument()
	if options.IncludeXMLDeclaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}

	rootTag := options.RootTag
	if rootTag == "" {
		rootTag = "ItxCloseExport"
		if dialect == config.DialectCOM {
			rootTag = "ITX_CLOSE_EXPORT_COM"
		}
	}
	root := doc.CreateElement(rootTag)

	if !options.OmitStoreInfo {
		info := root.CreateElement("STORE_INFO")
		info.CreateElement("storeId").SetText(options.StoreID)
		info.CreateElement("storeName").SetText("Store " + options.StoreID)
		info.CreateElement("closeDate").SetText("2024-03-01")
	}

	valid := root.CreateElement("VALID_TICKETS")
	for i := 1; i <= options.Tickets; i++ {
		if dialect == config.DialectCOM {
			buildCOMTicket(valid, i, options)
		} else {
			buildStandardTicket(valid, i, options)
		}
	}

	if options.DocumentSections && dialect == config.DialectStandard {
		buildDocumentSections(root, options)
	}
	return doc, nil
}

// =============================================================================
// ELEMENT BUILDERS
// =============================================================================

func buildTicketHeader(parent *etree.Element, i int, options GenerateOptions) *etree.Element {
	t := parent.CreateElement("TICKET")
	t.CreateAttr("STOREID", options.StoreID)
	t.CreateAttr("POSNUMBER", strconv.Itoa(1+i%3))
	t.CreateAttr("OPERATIONNUMBER", strconv.Itoa(1000+i))
	t.CreateAttr("TICKETNUMBER", strconv.Itoa(i))

	t.CreateElement("serial").SetText(fmt.Sprintf("S%06d", i))
	t.CreateElement("date").SetText("2024-03-01")
	t.CreateElement("time").SetText(fmt.Sprintf("%02d:%02d:00", 9+i/60%12, i%60))
	t.CreateElement("operatorId").SetText(strconv.Itoa(100 + i%7))
	return t
}

func buildStandardTicket(parent *etree.Element, i int, options GenerateOptions) {
	t := buildTicketHeader(parent, i, options)
	total := ticketTotal(i, options.LinesPerTicket+options.DirectLines)
	t.CreateElement("totalSale").SetText(commaDecimal(total))
	t.CreateElement("totalNet").SetText(commaDecimal(total * 100 / 121))
	t.CreateElement("isVoidTicket").SetText("false")
	t.CreateElement("roundingError").SetText("0,00")

	if options.LinesPerTicket > 0 {
		lines := t.CreateElement("SALE_LINES")
		for j := 1; j <= options.LinesPerTicket; j++ {
			buildStandardLine(lines, i, j, options)
		}
	}
	for j := 1; j <= options.DirectLines; j++ {
		buildStandardLine(t, i, options.LinesPerTicket+j, options)
	}

	buildPayments(t, i, total, options, false)
	buildTicketExtras(t, i)
}

func buildStandardLine(parent *etree.Element, ticket, line int, options GenerateOptions) {
	l := parent.CreateElement("LINE")
	l.CreateAttr("lineNumber", strconv.Itoa(line))
	l.CreateElement("barcode").SetText(fmt.Sprintf("84%011d", ticket*100+line))
	l.CreateElement("description").SetText(fmt.Sprintf("Item %d-%d", ticket, line))
	l.CreateElement("familyCode").SetText(strconv.Itoa(10 + line%5))
	l.CreateElement("quantity").SetText("1")
	price := linePrice(ticket, line)
	l.CreateElement("orgPrice").SetText(commaDecimal(price))
	l.CreateElement("price").SetText(commaDecimal(price))
	l.CreateElement("lineType").SetText("SALE")

	if options.TaxesPerLine > 0 {
		taxes := l.CreateElement("LINE_TAX_LIST")
		for k := 0; k < options.TaxesPerLine; k++ {
			taxes.CreateElement("LINE_TAX").CreateElement("taxPercent").SetText(taxRate(k))
		}
	}
	if line%2 == 0 {
		promos := l.CreateElement("PROMOTION_LIST")
		promos.CreateElement("PROMOTION").CreateElement("name").SetText("2x1")
	}
}

func buildCOMTicket(parent *etree.Element, i int, options GenerateOptions) {
	t := buildTicketHeader(parent, i, options)
	total := ticketTotal(i, options.LinesPerTicket+options.DirectLines)
	totals := t.CreateElement("TOTALS")
	totals.CreateElement("totalSale").SetText(commaDecimal(total))
	totals.CreateElement("totalNet").SetText(commaDecimal(total * 100 / 121))
	order := t.CreateElement("ORDER_INFO")
	order.CreateElement("orderNumber").SetText(fmt.Sprintf("W%08d", i))
	order.CreateElement("channel").SetText("WEB")

	if options.LinesPerTicket > 0 {
		items := t.CreateElement("SALE_LINE_ITEMS")
		for j := 1; j <= options.LinesPerTicket; j++ {
			buildCOMItem(items, i, j, options)
		}
	}
	for j := 1; j <= options.DirectLines; j++ {
		buildCOMItem(t, i, options.LinesPerTicket+j, options)
	}

	buildPayments(t, i, total, options, true)
	buildTicketExtras(t, i)

	cts := t.CreateElement("CUSTOMER_TICKETS")
	ct := cts.CreateElement("CT_TICKET")
	ct.CreateAttr("type", "GIFT")
	ct.CreateElement("customerId").SetText(fmt.Sprintf("C%05d", i))
}

func buildCOMItem(parent *etree.Element, ticket, line int, options GenerateOptions) {
	it := parent.CreateElement("ITEM")
	it.CreateAttr("itemNumber", strconv.Itoa(line))
	info := it.CreateElement("ITEM_INFO")
	info.CreateElement("ean").SetText(fmt.Sprintf("84%011d", ticket*100+line))
	info.CreateElement("description").SetText(fmt.Sprintf("Item %d-%d", ticket, line))
	it.CreateElement("qty").SetText("1")
	price := linePrice(ticket, line)
	prices := it.CreateElement("PRICES")
	prices.CreateElement("original").SetText(commaDecimal(price))
	prices.CreateElement("final").SetText(commaDecimal(price))
	it.CreateElement("itemType").SetText("SALE")

	for k := 0; k < options.TaxesPerLine; k++ {
		it.CreateElement("ITEM_TAX").CreateElement("taxPercent").SetText(taxRate(k))
	}
}

func buildPayments(t *etree.Element, i int, total int64, options GenerateOptions, com bool) {
	if options.PaymentsPerTicket <= 0 {
		return
	}
	media := t.CreateElement("MEDIA_LINES")
	share := total / int64(options.PaymentsPerTicket)
	for k := 1; k <= options.PaymentsPerTicket; k++ {
		m := media.CreateElement("MEDIA")
		if com {
			m.CreateElement("paymentMethodId").SetText(strconv.Itoa(k))
			m.CreateElement("value").SetText(commaDecimal(share))
			m.CreateElement("currencyCode").SetText("EUR")
			m.CreateElement("PSP_INFO").CreateElement("transactionId").SetText(fmt.Sprintf("TX%d-%d", i, k))
			continue
		}
		m.CreateAttr("mediaId", strconv.Itoa(k))
		m.CreateElement("mediaType").SetText("CASH")
		m.CreateElement("amount").SetText(commaDecimal(share))
		m.CreateElement("currency").SetText("EUR")
	}
}

func buildTicketExtras(t *etree.Element, i int) {
	data := t.CreateElement("TICKET_DATA_LIST")
	d := data.CreateElement("TICKET_DATA")
	d.CreateAttr("key", "loyalty")
	d.SetText(fmt.Sprintf("L%04d", i))

	counters := t.CreateElement("TICKET_COUNTER_LIST")
	c := counters.CreateElement("TICKET_COUNTER")
	c.CreateAttr("type", "items")
	c.CreateAttr("count", strconv.Itoa(i%5+1))

	if i%3 == 0 {
		auths := t.CreateElement("TICKET_AUTH_LIST")
		a := auths.CreateElement("TICKET_AUTH")
		a.CreateElement("authCode").SetText(fmt.Sprintf("A%05d", i))
		a.CreateElement("supervisorId").SetText("7")
	}
}

func buildDocumentSections(root *etree.Element, options GenerateOptions) {
	voided := root.CreateElement("VOIDED_TICKETS")
	v := voided.CreateElement("TICKET_VOID")
	v.CreateAttr("STOREID", options.StoreID)
	v.CreateElement("reason").SetText("customer cancelled")

	txs := root.CreateElement("TRANSACTIONS")
	tx := txs.CreateElement("TRANSACTION")
	tx.CreateAttr("type", "OPEN")
	tx.CreateElement("time").SetText("08:55:00")

	warnings := root.CreateElement("WARNINGS")
	w := warnings.CreateElement("WARNING")
	w.CreateAttr("code", "W01")
	w.CreateElement("message").SetText("drawer count mismatch")
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// linePrice returns a price in cents.
func linePrice(ticket, line int) int64 {
	return int64(100 + (ticket*37+line*13)%4900)
}

func ticketTotal(ticket, lines int) int64 {
	var total int64
	for j := 1; j <= lines; j++ {
		total += linePrice(ticket, j)
	}
	return total
}

// commaDecimal renders cents with a comma decimal separator, as the exports
// do.
func commaDecimal(cents int64) string {
	return fmt.Sprintf("%d,%02d", cents/100, cents%100)
}

func taxRate(k int) string {
	rates := []string{"21", "10", "4"}
	return rates[k%len(rates)]
}
