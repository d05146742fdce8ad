package tabular

import (
	"context"
	"database/sql"
	"fmt"
)

// Column describes a table column
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"not_null"`
}

// Table describes a table's columns and size
type Table struct {
	Columns  []Column `json:"columns"`
	RowCount int      `json:"row_count"`
}

// Schema describes every table with a few sample rows
type Schema struct {
	Tables     map[string]*Table                   `json:"tables"`
	SampleData map[string][]map[string]interface{} `json:"sample_data"`
}

const sampleRows = 3

// Execute runs query and returns rows keyed by column name. Errors carry the engine message.
func (s *Store) Execute(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scan(rows)
}

func scan(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ret := []map[string]interface{}{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		ret = append(ret, row)
	}
	return ret, rows.Err()
}

// TableNames returns user tables in creation order
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		ret = append(ret, name)
	}
	return ret, rows.Err()
}

// Schema returns columns, row counts and up to three sample rows per table
func (s *Store) Schema(ctx context.Context) (*Schema, error) {
	names, err := s.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	ret := &Schema{Tables: map[string]*Table{}, SampleData: map[string][]map[string]interface{}{}}
	for _, name := range names {
		table, err := s.describe(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", name, err)
		}
		ret.Tables[name] = table
		samples, err := s.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), sampleRows))
		if err != nil {
			return nil, err
		}
		ret.SampleData[name] = samples
	}
	return ret, nil
}

func (s *Store) describe(ctx context.Context, name string) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, err
	}
	table := &Table{}
	columns, err := scanColumns(rows)
	if err != nil {
		return nil, err
	}
	table.Columns = columns
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&table.RowCount)
	return table, err
}

// scanColumns reads PRAGMA table_info rows and closes them
func scanColumns(rows *sql.Rows) ([]Column, error) {
	defer rows.Close()
	var ret []Column
	for rows.Next() {
		var (
			cid          int
			column       Column
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &column.Name, &column.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		column.NotNull = notNull != 0
		ret = append(ret, column)
	}
	return ret, rows.Err()
}

// SampleQueries returns starter queries for the loaded tables
func (s *Store) SampleQueries(ctx context.Context) ([]string, error) {
	names, err := s.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, name := range names {
		ret = append(ret,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", name),
			fmt.Sprintf("SELECT * FROM %s LIMIT 5", name))
		ret = append(ret, knownQueries[name]...)
	}
	return ret, nil
}

var knownQueries = map[string][]string{
	"employees": {
		"SELECT department, COUNT(*) as employee_count FROM employees GROUP BY department",
		"SELECT * FROM employees WHERE status = 'Active'",
	},
	"support_tickets": {
		"SELECT status, COUNT(*) as ticket_count FROM support_tickets GROUP BY status",
		"SELECT * FROM support_tickets WHERE priority = 'High'",
	},
	"customers": {
		"SELECT industry, COUNT(*) as customer_count FROM customers GROUP BY industry",
		"SELECT * FROM customers WHERE status = 'Active' ORDER BY contract_value DESC",
	},
	"company_assets": {
		"SELECT type, COUNT(*) as asset_count FROM company_assets GROUP BY type",
		"SELECT * FROM company_assets WHERE status = 'Active' AND cost > 1000",
	},
}
