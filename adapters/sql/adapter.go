// Package sql exposes database tables as composite-model sources over
// database/sql, one adapter per table.
package sql

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/jmoiron/sqlx"

	"github.com/docstitch/stitch/core"
)

// Adapter implements the core.Adapter contract for one table.
type Adapter struct {
	db      *sqlx.DB
	table   string
	idField string
	logger  *SQLLogger
}

// New creates a new SQL adapter for the given table.
func New(db *sqlx.DB, table string) *Adapter {
	return &Adapter{
		db:      db,
		table:   table,
		idField: "id",
		logger:  NewSQLLogger(false), // Default to disabled
	}
}

// NewWithDebug creates a new SQL adapter with debug logging enabled
func NewWithDebug(db *sqlx.DB, table string, debugEnabled bool) *Adapter {
	a := New(db, table)
	a.logger.SetEnabled(debugEnabled)
	return a
}

// SetDebugEnabled enables or disables SQL debug logging
func (a *Adapter) SetDebugEnabled(enabled bool) {
	a.logger.SetEnabled(enabled)
}

// TableFor derives a table name from a source name: snake_case, pluralized.
func TableFor(source string) string {
	return pluralize(strcase.ToSnake(source))
}

// Basic pluralization - can be enhanced later
func pluralize(word string) string {
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	if strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") ||
		strings.HasSuffix(word, "z") || strings.HasSuffix(word, "ch") ||
		strings.HasSuffix(word, "sh") {
		return word + "es"
	}
	return word + "s"
}

// Fetch returns all rows matching the spec as schema-less records.
func (a *Adapter) Fetch(ctx context.Context, match core.MatchSpec) ([]core.Record, error) {
	where, args := buildWhere(match)
	query := fmt.Sprintf("SELECT * FROM %s%s", a.table, where)

	start := time.Now()
	rows, err := a.db.QueryxContext(ctx, query, args...)
	if err != nil {
		a.logger.LogError(query, args, time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	out := make([]core.Record, 0)
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			a.logger.LogError(query, args, time.Since(start), err)
			return nil, err
		}
		out = append(out, core.Record(m))
	}
	if err := rows.Err(); err != nil {
		a.logger.LogError(query, args, time.Since(start), err)
		return nil, err
	}
	a.logger.LogQuery(query, args, time.Since(start), len(out))
	return out, nil
}

// Create inserts the record, assigning a uuid identifier when the payload
// carries none, and returns the record as inserted.
func (a *Adapter) Create(ctx context.Context, data core.Record) (core.Record, error) {
	rec := data.Clone()
	if rec == nil {
		rec = core.Record{}
	}
	if _, ok := rec[a.idField]; !ok {
		rec[a.idField] = uuid.NewString()
	}

	cols := sortedKeys(rec)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		args[i] = rec[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if _, err := a.exec(ctx, query, args); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update patches every matching row and returns the rows after the patch.
// Matching rows are identified up front so they can be re-read even when the
// patch rewrites the matched fields themselves.
func (a *Adapter) Update(ctx context.Context, match core.MatchSpec, patch core.Record) ([]core.Record, error) {
	if len(patch) == 0 {
		return a.Fetch(ctx, match)
	}

	before, err := a.Fetch(ctx, match)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(before))
	for _, rec := range before {
		id, ok := rec[a.idField]
		if !ok {
			ids = nil
			break
		}
		ids = append(ids, id)
	}

	cols := sortedKeys(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
		args = append(args, patch[c])
	}
	where, whereArgs := buildWhere(match)
	query := fmt.Sprintf("UPDATE %s SET %s%s", a.table, strings.Join(sets, ", "), where)
	if _, err := a.exec(ctx, query, append(args, whereArgs...)); err != nil {
		return nil, err
	}

	if ids == nil {
		// No identifier column to track rows by; best effort re-read.
		return a.Fetch(ctx, match)
	}
	out := make([]core.Record, 0, len(ids))
	for _, id := range ids {
		recs, err := a.Fetch(ctx, core.MatchSpec{a.idField: id})
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Delete removes every matching row and returns exactly the removed rows.
func (a *Adapter) Delete(ctx context.Context, match core.MatchSpec) ([]core.Record, error) {
	removed, err := a.Fetch(ctx, match)
	if err != nil {
		return nil, err
	}

	where, args := buildWhere(match)
	query := fmt.Sprintf("DELETE FROM %s%s", a.table, where)
	if _, err := a.exec(ctx, query, args); err != nil {
		return nil, err
	}
	return removed, nil
}

// exec wraps ExecContext with debug logging.
func (a *Adapter) exec(ctx context.Context, query string, args []any) (int64, error) {
	start := time.Now()
	result, err := a.db.ExecContext(ctx, query, args...)
	duration := time.Since(start)
	if err != nil {
		a.logger.LogError(query, args, duration, err)
		return 0, err
	}

	affected := int64(-1)
	if n, err := result.RowsAffected(); err == nil {
		affected = n
	}
	a.logger.LogExec(query, args, duration, affected)
	return affected, nil
}

// buildWhere renders a match spec as a WHERE clause with deterministic
// column order.
func buildWhere(match core.MatchSpec) (string, []any) {
	if len(match) == 0 {
		return "", nil
	}

	keys := sortedKeys(core.Record(match))
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if match[k] == nil {
			conds = append(conds, k+" IS NULL")
			continue
		}
		conds = append(conds, k+" = ?")
		args = append(args, match[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedKeys(m core.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
