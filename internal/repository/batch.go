package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"takurating/internal/constants"
	"takurating/internal/database"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// runInTx runs fn on q when q is already a transaction, otherwise in a
// new transaction on db.
func runInTx(ctx context.Context, db *sql.DB, q database.DBTX, fn func(database.DBTX) error) error {
	if _, ok := q.(*sql.Tx); ok {
		return fn(q)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// valuesList renders "($1, $2), ($3, $4)" for the rows and flattens their
// arguments in the same order.
func valuesList(rows [][]any) (string, []any) {
	var (
		b    strings.Builder
		args []any
		n    int
	)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			n++
			fmt.Fprintf(&b, "$%d", n)
		}
		b.WriteByte(')')
		args = append(args, row...)
	}
	return b.String(), args
}

// execBatch writes rows with one multi-row statement per DBBatchSize
// chunk: head + VALUES list + tail.
func execBatch(ctx context.Context, q database.DBTX, head, tail string, rows [][]any) error {
	for i := 0; i < len(rows); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(rows))

		values, args := valuesList(rows[i:end])
		if _, err := q.ExecContext(ctx, head+" "+values+tail, args...); err != nil {
			return err
		}
	}
	return nil
}

// dedupeByID keeps the last item for each id, in first-seen order. A
// multi-row upsert may not touch the same row twice.
func dedupeByID[T any](items []T, id func(T) string) []T {
	pos := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		key := id(it)
		if i, ok := pos[key]; ok && key != "" {
			out[i] = it
			continue
		}
		pos[key] = len(out)
		out = append(out, it)
	}
	return out
}

func ensureID(id *string) error {
	if *id != "" {
		return nil
	}
	v, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}
	*id = v
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
