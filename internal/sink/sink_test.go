package sink

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(kv ...string) *types.Record {
	r := types.NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func testUnit() Unit {
	b := types.NewTableBundle()
	b.Add(types.TableTickets, record("TICKETNUMBER", "1", "totalSale", "12.5", "serial", "000123"))
	b.Add(types.TableTickets, record("TICKETNUMBER", "2", "totalSale", "-3", "serial", "000124", "note", "late"))
	b.Add(types.TableSaleLines, record("TICKET_TICKETNUMBER", "1", "barcode", "8412345678901234", "taxes", "10%|21%"))
	b.Add("A_VERY_LONG_TABLE_NAME_THAT_EXCEEDS_THE_LIMIT", record("x", "1"))
	return Unit{
		Document:     "close.xml",
		Base:         "close",
		Dialect:      config.DialectStandard,
		Index:        3,
		TotalTickets: 2,
		Bundle:       b,
	}
}

func TestPartName(t *testing.T) {
	assert.Equal(t, "close_part001", PartName("close", 1))
	assert.Equal(t, "close_part042", PartName("close", 42))
	assert.Equal(t, "close_part1234", PartName("close", 1234))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "TICKETS", SheetName("TICKETS"))
	assert.Equal(t, "A_VERY_LONG_TABLE_NAME_THAT_EXC", SheetName("A_VERY_LONG_TABLE_NAME_THAT_EXCEEDS_THE_LIMIT"))
	assert.Len(t, SheetName(strings.Repeat("x", 40)), MaxSheetName)
}

func TestCellValue(t *testing.T) {
	numbers := map[string]float64{
		"12.5": 12.5,
		"-3":   -3,
		"0":    0,
		"0.25": 0.25,
		"1000": 1000,
	}
	for in, want := range numbers {
		assert.Equal(t, want, CellValue(in), in)
	}
	for _, in := range []string{"", "000123", "+5", "1e5", "12,5", "8412345678901234", "abc", ".5", "5.", "-"} {
		assert.Equal(t, in, CellValue(in), in)
	}
}

func TestXLSXWrite(t *testing.T) {
	dir := t.TempDir()
	path, err := NewXLSX(dir).Write(context.Background(), testUnit())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "close_part003.xlsx"), path)

	sheets, order, err := ReadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TICKETS", "SALE_LINES", "A_VERY_LONG_TABLE_NAME_THAT_EXC"}, order)

	tickets := sheets["TICKETS"]
	require.Len(t, tickets, 3)
	assert.Equal(t, []string{"TICKETNUMBER", "totalSale", "serial", "note"}, tickets[0])
	assert.Equal(t, "000123", tickets[1][2])
	assert.Equal(t, "late", tickets[2][3])

	lines := sheets["SALE_LINES"]
	require.Len(t, lines, 2)
	assert.Equal(t, "8412345678901234", lines[1][1])
	assert.Equal(t, "10%|21%", lines[1][2])
}

func TestXLSXHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewXLSX(t.TempDir()).Write(ctx, testUnit())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestColumnWidths(t *testing.T) {
	table := types.NewTable("T")
	table.Append(record("id", "1", "description", strings.Repeat("d", 80)))
	assert.Equal(t, []float64{4, MaxColumnWidth}, columnWidths(table))
}

func TestCSVWrite(t *testing.T) {
	dir := t.TempDir()
	out, err := NewCSV(dir).WithDelimiter("semicolon").Write(context.Background(), testUnit())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "close_part003"), out)

	rows, err := ReadCSV(filepath.Join(out, "TICKETS.csv"), ";")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"TICKETNUMBER", "totalSale", "serial", "note"}, rows[0])
	assert.Equal(t, []string{"1", "12.5", "000123", ""}, rows[1])
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, '\t', Delimiter("tab"))
	assert.Equal(t, '|', Delimiter("pipe"))
	assert.Equal(t, ';', Delimiter(";"))
	assert.Equal(t, ',', Delimiter(""))
}

func TestSQLiteWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "closeout.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	u := testUnit()
	_, err = s.Write(ctx, u)
	require.NoError(t, err)
	// A rewrite of the same batch replaces its rows.
	_, err = s.Write(ctx, u)
	require.NoError(t, err)

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "TICKETS" WHERE "_batch" = 3`).Scan(&n))
	assert.Equal(t, 2, n)

	var note string
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT "note" FROM "TICKETS" WHERE "TICKETNUMBER" = '2'`).Scan(&note))
	assert.Equal(t, "late", note)

	next := testUnit()
	next.Index = 4
	next.Bundle.Add(types.TableSaleLines, record("TICKET_TICKETNUMBER", "2", "promotions", "2x1"))
	_, err = s.Write(ctx, next)
	require.NoError(t, err)

	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "SALE_LINES"`).Scan(&n))
	assert.Equal(t, 3, n)
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM exports`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Formats = []string{"xlsx", "parquet"}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	m := &Memory{}
	name, err := m.Write(context.Background(), testUnit())
	require.NoError(t, err)
	assert.Equal(t, "close_part003", name)
	assert.Len(t, m.Units, 1)
}

func TestMemorySinkConcurrentWrites(t *testing.T) {
	m := &Memory{}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Write(context.Background(), testUnit())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, m.Units, 16)
}
