package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
)

// Bookkeeping columns added to every exported table.
const (
	ColumnDocument = "_document"
	ColumnBatch    = "_batch"
)

// SQLite appends every unit to one database. Each table name becomes a SQL
// table of TEXT columns; columns are added as new ones appear. Rewriting a
// (document, batch) pair replaces its rows.
type SQLite struct {
	path string
	db   *sql.DB

	mu      sync.Mutex
	columns map[string]map[string]bool
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; documents processed concurrently serialize here.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS exports (
	document TEXT NOT NULL,
	batch INTEGER NOT NULL,
	dialect TEXT,
	total_tickets INTEGER,
	tables TEXT,
	PRIMARY KEY(document, batch)
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{
		path:    path,
		db:      db,
		columns: make(map[string]map[string]bool),
	}, nil
}

// Name implements Sink.
func (s *SQLite) Name() string { return "sqlite" }

// DB exposes the handle for inspection.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close implements Sink.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Write implements Sink.
func (s *SQLite) Write(ctx context.Context, u Unit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
			// Columns added by the rolled back transaction are gone.
			s.columns = make(map[string]map[string]bool)
		}
	}()

	for _, table := range u.Bundle.Tables() {
		if err := s.ensureTable(ctx, tx, table); err != nil {
			return "", fmt.Errorf("table %s: %w", table.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", quoteIdent(table.Name), quoteIdent(ColumnDocument), quoteIdent(ColumnBatch)),
			u.Document, u.Index); err != nil {
			return "", fmt.Errorf("table %s: %w", table.Name, err)
		}
		if err := insertRows(ctx, tx, u, table); err != nil {
			return "", fmt.Errorf("table %s: %w", table.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO exports (document, batch, dialect, total_tickets, tables) VALUES (?, ?, ?, ?, ?)`,
		u.Document, u.Index, u.Dialect, u.TotalTickets, strings.Join(u.Bundle.Names(), ",")); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true
	return fmt.Sprintf("%s#%s", s.path, u.PartName()), nil
}

// ensureTable creates the table and adds missing columns.
func (s *SQLite) ensureTable(ctx context.Context, tx *sql.Tx, table *types.Table) error {
	known, err := s.tableColumns(ctx, tx, table.Name)
	if err != nil {
		return err
	}
	if len(known) == 0 {
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL, %s INTEGER NOT NULL)",
			quoteIdent(table.Name), quoteIdent(ColumnDocument), quoteIdent(ColumnBatch))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
		known[strings.ToLower(ColumnDocument)] = true
		known[strings.ToLower(ColumnBatch)] = true
	}
	for _, c := range table.Columns() {
		if known[strings.ToLower(c)] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteIdent(table.Name), quoteIdent(c))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
		known[strings.ToLower(c)] = true
	}
	return nil
}

// tableColumns returns the cached column set, loading it on first use.
// SQLite identifiers are case-insensitive, so names are lowercased.
func (s *SQLite) tableColumns(ctx context.Context, tx *sql.Tx, name string) (map[string]bool, error) {
	if cols, ok := s.columns[name]; ok {
		return cols, nil
	}
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[strings.ToLower(col)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.columns[name] = cols
	return cols, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, u Unit, table *types.Table) error {
	columns := table.Columns()
	names := make([]string, 0, len(columns)+2)
	names = append(names, quoteIdent(ColumnDocument), quoteIdent(ColumnBatch))

	// Columns differing only by case share one SQL column; the first wins.
	seen := map[string]bool{strings.ToLower(ColumnDocument): true, strings.ToLower(ColumnBatch): true}
	var keep []int
	for i, c := range columns {
		if seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		keep = append(keep, i)
		names = append(names, quoteIdent(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table.Name), strings.Join(names, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(names))
	for i := 0; i < table.Len(); i++ {
		args[0] = u.Document
		args[1] = u.Index
		row := table.Row(i)
		for j, idx := range keep {
			args[j+2] = row[idx]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
