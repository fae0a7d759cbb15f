package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := NewRecord()
	r.Set("b", "1")
	r.Set("a", "2")
	r.Set("b", "3")

	assert.Equal(t, []string{"b", "a"}, r.Columns())
	assert.Equal(t, "3", r.Value("b"))
	assert.Equal(t, 2, r.Len())

	_, ok := r.Get("missing")
	assert.False(t, ok)

	r.Set("empty", "")
	v, ok := r.Get("empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestRecordClone(t *testing.T) {
	r := NewRecord()
	r.Set("x", "1")
	c := r.Clone()
	c.Set("x", "2")
	c.Set("y", "3")

	assert.Equal(t, "1", r.Value("x"))
	assert.Equal(t, []string{"x"}, r.Columns())
	assert.Equal(t, []string{"x", "y"}, c.Columns())
}

func TestTableColumnUnion(t *testing.T) {
	tbl := NewTable(TableSaleLines)
	r1 := NewRecord()
	r1.Set("a", "1")
	r1.Set("b", "2")
	r2 := NewRecord()
	r2.Set("c", "3")
	r2.Set("a", "4")
	tbl.Append(r1)
	tbl.Append(r2)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	assert.Equal(t, []string{"1", "2", ""}, tbl.Row(0))
	assert.Equal(t, []string{"4", "", "3"}, tbl.Row(1))

	clone := tbl.Clone()
	clone.Records()[0].Set("a", "changed")
	assert.Equal(t, "1", tbl.Records()[0].Value("a"))
}

func TestBundleOrderAndCounts(t *testing.T) {
	b := NewTableBundle()
	rec := func() *Record {
		r := NewRecord()
		r.Set("k", "v")
		return r
	}
	b.Add(TableTickets, rec())
	b.Add(TableSaleLines, rec())
	b.Add(TableTickets, rec())
	b.Put(NewTable(TableWarnings))

	store := NewTable(TableStoreInfo)
	store.Append(rec())
	b.Put(store)

	assert.Equal(t, []string{TableTickets, TableSaleLines, TableStoreInfo}, b.Names())
	assert.Equal(t, 2, b.Rows(TableTickets))
	assert.Equal(t, 0, b.Rows(TableWarnings))
	assert.Nil(t, b.Table(TableWarnings))
	assert.Equal(t, 4, b.TotalRows())
	assert.Equal(t, 3, b.Len())
	require.Len(t, b.Tables(), 3)
	assert.Equal(t, TableStoreInfo, b.Tables()[2].Name)
}

func TestTicketKeyString(t *testing.T) {
	k := TicketKey{StoreID: "42", POSNumber: "1", TicketNumber: "9"}
	assert.Equal(t, "42/1//9", k.String())
}
