package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"magnetrss/models"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// LoadSnapshot returns the persisted snapshot, or nil if none has been saved yet
func (d *DB) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	selectSnapshot := sqlbuilder.SQLite.NewSelectBuilder()
	query, args := selectSnapshot.Select("version", "started_at").
		From("snapshot").
		Where(selectSnapshot.Equal("id", 0)).
		Build()

	var snapshot models.Snapshot
	var startedAt string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&snapshot.Version, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	snapshot.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot start time %q: %w", startedAt, err)
	}

	selectItems := sqlbuilder.SQLite.NewSelectBuilder()
	selectItems.Select("title", "link", "guid", "published_at").From("snapshot_items")
	selectItems.OrderBy("position").Asc()
	query, args = selectItems.Build()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	snapshot.Items = []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(&item.Title, &item.Link, &item.GUID, &item.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &snapshot, nil
}
