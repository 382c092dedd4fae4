package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var errBatchDone = errors.New("batch already committed")

type sqliteBatch struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

func (b *sqliteBatch) begin(ctx context.Context) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	b.tx = tx
	b.stmt = stmt
	return nil
}

func (b *sqliteBatch) Upsert(ctx context.Context, rec FileRecord) error {
	if b.tx == nil {
		return errBatchDone
	}
	if _, err := b.stmt.ExecContext(ctx, upsertArgs(rec)...); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Filepath, err)
	}
	return nil
}

func (b *sqliteBatch) Flush(ctx context.Context) error {
	if err := b.Commit(); err != nil {
		return err
	}
	return b.begin(ctx)
}

func (b *sqliteBatch) Commit() error {
	if b.tx == nil {
		return errBatchDone
	}
	b.stmt.Close()
	err := b.tx.Commit()
	b.tx, b.stmt = nil, nil
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (b *sqliteBatch) Rollback() error {
	if b.tx == nil {
		return nil
	}
	b.stmt.Close()
	err := b.tx.Rollback()
	b.tx, b.stmt = nil, nil
	return err
}
