package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet layout limits.
const (
	// MaxSheetName is the longest sheet name a workbook accepts.
	MaxSheetName = 31

	// MaxColumnWidth caps the computed column width.
	MaxColumnWidth = 50

	// maxExactDigits is the number of significant digits a float64 cell
	// holds without loss.
	maxExactDigits = 15
)

// XLSX writes one workbook per unit named "<base>_partNNN.xlsx".
type XLSX struct {
	dir string
}

// NewXLSX returns a workbook sink writing into dir.
func NewXLSX(dir string) *XLSX {
	return &XLSX{dir: dir}
}

// Name implements Sink.
func (x *XLSX) Name() string { return "xlsx" }

// Close implements Sink.
func (x *XLSX) Close() error { return nil }

// Write implements Sink.
//
// LAYOUT:
//   - One sheet per table, in bundle order, named after the table
//     (truncated to 31 characters)
//   - Row 1 holds the column names in bold
//   - Column width is the longest value plus 2, at most 50
//   - Numeric-looking values are written as numbers, the rest as text
func (x *XLSX) Write(ctx context.Context, u Unit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(x.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	used := make(map[string]bool)
	for i, table := range u.Bundle.Tables() {
		name := uniqueSheetName(SheetName(table.Name), used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return "", fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, table, bold); err != nil {
			return "", fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	path := filepath.Join(x.dir, u.PartName()+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, table *types.Table, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	columns := table.Columns()
	for i, w := range columnWidths(table) {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r := 0; r < table.Len(); r++ {
		row := table.Row(r)
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = CellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// columnWidths returns min(longest value + 2, 50) per column, header
// included.
func columnWidths(table *types.Table) []float64 {
	columns := table.Columns()
	longest := make([]int, len(columns))
	for i, c := range columns {
		longest[i] = utf8.RuneCountInString(c)
	}
	for r := 0; r < table.Len(); r++ {
		for i, v := range table.Row(r) {
			if n := utf8.RuneCountInString(v); n > longest[i] {
				longest[i] = n
			}
		}
	}
	widths := make([]float64, len(columns))
	for i, n := range longest {
		w := n + 2
		if w > MaxColumnWidth {
			w = MaxColumnWidth
		}
		widths[i] = float64(w)
	}
	return widths
}

// SheetName truncates a table name to the sheet name limit.
func SheetName(table string) string {
	if utf8.RuneCountInString(table) <= MaxSheetName {
		return table
	}
	return string([]rune(table)[:MaxSheetName])
}

// uniqueSheetName disambiguates names that collide after truncation.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		candidate = string([]rune(name)[:min(utf8.RuneCountInString(name), MaxSheetName-len(suffix))]) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// CellValue returns the native cell value for v: a float64 when v is a plain
// decimal number a spreadsheet can hold exactly, v itself otherwise.
// Identifiers with leading zeros, explicit plus signs and long digit runs
// such as barcodes stay text.
func CellValue(v string) interface{} {
	if !numericLooking(v) {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	f, _ := d.Float64()
	return f
}

func numericLooking(v string) bool {
	if v == "" || v[0] == '+' {
		return false
	}
	s := strings.TrimPrefix(v, "-")
	if s == "" || s[0] == '.' {
		return false
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if hasDot && frac == "" {
		return false
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return false
	}
	digits := 0
	for _, part := range []string{intPart, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
			digits++
		}
	}
	return digits <= maxExactDigits
}

// ReadWorkbook loads every sheet of a workbook as rows of strings, keyed by
// sheet name.
func ReadWorkbook(path string) (map[string][][]string, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	out := make(map[string][][]string, len(sheets))
	for _, s := range sheets {
		rows, err := f.GetRows(s)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet %s: %w", s, err)
		}
		out[s] = rows
	}
	return out, sheets, nil
}
