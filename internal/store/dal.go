package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of Query. Row-returning statements fill Rows; other
// statements report LastInsertID and Changes.
type Result struct {
	Rows         []Row
	LastInsertID int64
	Changes      int64
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// returnsRows reports whether the statement yields a result set.
func returnsRows(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN":
		return true
	}
	return returningClause.MatchString(query)
}

// Query runs a single parameterized statement. Placeholders are positional (?).
func (s *Store) Query(ctx context.Context, query string, args ...any) (res Result, err error) {
	defer observe("query", time.Now(), &err)
	ctx = ensureContext(ctx)
	err = retryOnBusy(ctx, func() error {
		var opErr error
		res, opErr = runQuery(ctx, s.db, query, args...)
		return opErr
	})
	return res, err
}

// ExecScript runs a multi-statement script without parameters inside one
// transaction, so a failed or busy attempt leaves nothing applied and is safe
// to retry. Statements that SQLite refuses inside a transaction (VACUUM,
// journal_mode changes) are not supported.
func (s *Store) ExecScript(ctx context.Context, script string) (err error) {
	defer observe("exec_script", time.Now(), &err)
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin script tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		if err := execScript(ctx, tx, script); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit script: %w", err)
		}
		return nil
	})
}

func execScript(ctx context.Context, q queryer, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	if _, err := q.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func runQuery(ctx context.Context, q queryer, query string, args ...any) (Result, error) {
	if !returnsRows(query) {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return Result{}, fmt.Errorf("exec statement: %w", err)
		}
		lastID, _ := res.LastInsertId()
		changes, _ := res.RowsAffected()
		return Result{Rows: []Row{}, LastInsertID: lastID, Changes: changes}, nil
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("query statement: %w", err)
	}
	defer rows.Close()
	out, err := scanRows(rows)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: out}, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[column] = string(raw)
				continue
			}
			row[column] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
