package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []config.KeyColumn{
	{Attribute: "STOREID", Column: "TICKET_STOREID"},
	{Attribute: "POSNUMBER", Column: "TICKET_POSNUMBER"},
	{Attribute: "OPERATIONNUMBER", Column: "TICKET_OPERATIONNUMBER"},
	{Attribute: "TICKETNUMBER", Column: "TICKET_TICKETNUMBER"},
}

func ticket(n string) *types.Record {
	r := types.NewRecord()
	r.Set("STOREID", "1")
	r.Set("POSNUMBER", "2")
	r.Set("OPERATIONNUMBER", "3")
	r.Set("TICKETNUMBER", n)
	return r
}

func line(n string) *types.Record {
	r := types.NewRecord()
	r.Set("TICKET_STOREID", "1")
	r.Set("TICKET_POSNUMBER", "2")
	r.Set("TICKET_OPERATIONNUMBER", "3")
	r.Set("TICKET_TICKETNUMBER", n)
	r.Set("quantity", "1")
	return r
}

func TestCheckLinkageValid(t *testing.T) {
	b1 := types.NewTableBundle()
	b1.Add(types.TableTickets, ticket("1"))
	b1.Add(types.TableSaleLines, line("1"))
	store := types.NewRecord()
	store.Set("storeId", "1")
	b1.Add(types.TableStoreInfo, store)

	b2 := types.NewTableBundle()
	b2.Add(types.TableTickets, ticket("2"))
	b2.Add(types.TableSaleLines, line("2"))
	b2.Add(types.TablePayments, line("1"))

	res := CheckLinkage([]*types.TableBundle{b1, b2}, types.TableTickets, testKey)
	assert.True(t, res.IsValid)
	assert.Equal(t, 2, res.TicketsChecked)
	assert.Equal(t, 3, res.RowsChecked)
	assert.Empty(t, res.Errors)
}

func TestCheckLinkageOrphan(t *testing.T) {
	b := types.NewTableBundle()
	b.Add(types.TableTickets, ticket("1"))
	b.Add(types.TableSaleLines, line("9"))

	res := CheckLinkage([]*types.TableBundle{b}, types.TableTickets, testKey)
	assert.False(t, res.IsValid)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.TableSaleLines, res.Errors[0].Table)
	assert.Equal(t, "9", res.Errors[0].Key.TicketNumber)
}

func TestCheckLinkageDuplicateTicket(t *testing.T) {
	b := types.NewTableBundle()
	b.Add(types.TableTickets, ticket("1"))
	b.Add(types.TableTickets, ticket("1"))

	res := CheckLinkage([]*types.TableBundle{b}, types.TableTickets, testKey)
	assert.True(t, res.IsValid)
	assert.Equal(t, 1, res.WarningCount)
}

func TestWriteErrorLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkage.log")
	errs := []*ValidationError{{Severity: SeverityError, Table: "SALE_LINES", Batch: 1, Message: "no ticket with this key"}}
	require.NoError(t, WriteErrorLog(errs, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ERROR] SALE_LINES batch 1")
	assert.Equal(t, "No validation errors.", FormatErrors(nil))
}
