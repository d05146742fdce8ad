package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// ErrNoHeader is returned for CSV input without a header row
var ErrNoHeader = errors.New("csv has no header")

// LoadFolder replaces each table with the CSV file mapped to it under folderURL.
// Missing files are skipped.
func (s *Store) LoadFolder(ctx context.Context, fs afs.Service, folderURL string, tables map[string]string) ([]string, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	var loaded []string
	for _, table := range names {
		URL := url.Join(folderURL, tables[table])
		exists, err := fs.Exists(ctx, URL)
		if err != nil {
			return loaded, fmt.Errorf("failed to check %s: %w", URL, err)
		}
		if !exists {
			continue
		}
		data, err := fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return loaded, fmt.Errorf("failed to download %s: %w", URL, err)
		}
		rows, err := s.LoadCSV(ctx, table, bytes.NewReader(data))
		if err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", URL, err)
		}
		s.logf("docrag: loaded table %s rows=%d", table, rows)
		loaded = append(loaded, table)
	}
	return loaded, nil
}

// LoadCSV replaces table with the CSV content. Column names are lower-cased with
// spaces and dashes turned into underscores; column types are inferred.
func (s *Store) LoadCSV(ctx context.Context, table string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return 0, ErrNoHeader
	}
	columns := make([]string, len(records[0]))
	for i, name := range records[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = CleanColumn(name)
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			rows[i] = padded
		} else if len(row) > len(columns) {
			rows[i] = row[:len(columns)]
		}
	}
	types := inferTypes(columns, rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return 0, err
	}
	defs := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		defs[i] = quoteIdent(column) + " " + types[i]
		placeholders[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	args := make([]interface{}, len(columns))
	for _, row := range rows {
		for i, value := range row {
			args[i] = convert(value, types[i])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CleanColumn normalizes a CSV header into a column name
func CleanColumn(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return strings.ToLower(strings.ReplaceAll(name, "-", "_"))
}

const (
	typeInteger = "INTEGER"
	typeReal    = "REAL"
	typeText    = "TEXT"
)

func inferTypes(columns []string, rows [][]string) []string {
	ret := make([]string, len(columns))
	for i := range columns {
		ret[i] = typeInteger
		seen := false
		for _, row := range rows {
			value := strings.TrimSpace(row[i])
			if value == "" {
				continue
			}
			seen = true
			if ret[i] == typeInteger {
				if _, err := strconv.ParseInt(value, 10, 64); err == nil {
					continue
				}
				ret[i] = typeReal
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				ret[i] = typeText
				break
			}
		}
		if !seen {
			ret[i] = typeText
		}
	}
	return ret
}

func convert(value, typ string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	switch typ {
	case typeInteger:
		v, _ := strconv.ParseInt(trimmed, 10, 64)
		return v
	case typeReal:
		v, _ := strconv.ParseFloat(trimmed, 64)
		return v
	}
	return value
}
