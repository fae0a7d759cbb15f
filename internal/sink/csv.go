package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSV writes one directory per unit, "<base>_partNNN/", holding one
// "<TABLE>.csv" file per table. The first record is the header.
type CSV struct {
	dir   string
	comma rune
}

// NewCSV returns a CSV sink writing into dir with a comma separator.
func NewCSV(dir string) *CSV {
	return &CSV{dir: dir, comma: ','}
}

// WithDelimiter sets the field separator. Accepts a character or one of
// "tab", "pipe", "semicolon".
func (c *CSV) WithDelimiter(delimiter string) *CSV {
	c.comma = Delimiter(delimiter)
	return c
}

// Name implements Sink.
func (c *CSV) Name() string { return "csv" }

// Close implements Sink.
func (c *CSV) Close() error { return nil }

// Write implements Sink.
func (c *CSV) Write(ctx context.Context, u Unit) (string, error) {
	dir := filepath.Join(c.dir, u.PartName())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, table := range u.Bundle.Tables() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path := filepath.Join(dir, table.Name+".csv")
		if err := c.writeFile(path, table.Columns(), table.Len(), table.Row); err != nil {
			return "", fmt.Errorf("table %s: %w", table.Name, err)
		}
	}
	return dir, nil
}

func (c *CSV) writeFile(path string, header []string, rows int, row func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	w := csv.NewWriter(buf)
	w.Comma = c.comma

	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// Delimiter maps a configured delimiter name to its rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if len(name) > 0 {
			return rune(name[0])
		}
		return ','
	}
}

// ReadCSV reads back a file written by the CSV sink.
func ReadCSV(path string, delimiter string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.Comma = Delimiter(delimiter)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}
