package db

import (
	"context"
	"fmt"
	"magnetrss/models"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Rows per INSERT statement, keeps the bind variable count well below SQLite's limit
const insertBatchSize = 500

// SaveSnapshot replaces the persisted snapshot with snapshot in a single
// transaction, so a concurrent LoadSnapshot sees either the old or the new one.
func (d *DB) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_items", "snapshot"} {
		sql, args := sqlbuilder.SQLite.NewDeleteBuilder().DeleteFrom(table).Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete error: %w", err)
		}
	}

	insertSnapshot := sqlbuilder.SQLite.NewInsertBuilder()
	sql, args := insertSnapshot.InsertInto("snapshot").
		Cols("id", "version", "started_at", "saved_at").
		Values(0, snapshot.Version, snapshot.StartedAt.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano)).
		Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}

	for start := 0; start < len(snapshot.Items); start += insertBatchSize {
		end := min(start+insertBatchSize, len(snapshot.Items))

		insertItems := sqlbuilder.SQLite.NewInsertBuilder()
		insertItems.InsertInto("snapshot_items").Cols("position", "title", "link", "guid", "published_at")
		for i, item := range snapshot.Items[start:end] {
			insertItems.Values(start+i, item.Title, item.Link, item.GUID, item.PublishedAt)
		}

		sql, args := insertItems.Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}

	log.WithFields(log.Fields{
		"version": snapshot.Version,
		"items":   len(snapshot.Items),
	}).Debug("Persisted snapshot")

	return nil
}
