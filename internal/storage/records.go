package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/internal/media"
)

const upsertRecordSQL = `
INSERT INTO media_records (collection, id, document, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, id)
DO UPDATE SET document = EXCLUDED.document, updated_at = now()`

// PostgresRecords stores media records as JSON documents keyed by collection and id.
type PostgresRecords struct {
	db *sqlx.DB
}

// NewPostgresRecords wraps an open database handle.
func NewPostgresRecords(db *sqlx.DB) *PostgresRecords {
	return &PostgresRecords{db: db}
}

// Put upserts the record; repeating the call with the same id overwrites the document.
func (s *PostgresRecords) Put(ctx context.Context, collection, id string, record media.Record) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("records: empty id for %s", collection)
	}
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("records: encode %s/%s: %w", collection, id, err)
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx, upsertRecordSQL, collection, id, string(doc))
	if err != nil {
		logger.Error(ctx, "store.records", "record.put",
			slog.String("status", "fail"),
			slog.String("collection", collection),
			slog.String("record_id", id),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("records: put %s/%s: %w", collection, id, err)
	}
	logger.Info(ctx, "store.records", "record.put",
		slog.String("status", "ok"),
		slog.String("collection", collection),
		slog.String("record_id", id),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// PostgresUsers resolves user names from the users table.
type PostgresUsers struct {
	db *sqlx.DB
}

// NewPostgresUsers wraps an open database handle.
func NewPostgresUsers(db *sqlx.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

// LookupName returns the display name of userID or media.ErrUserNotFound.
func (s *PostgresUsers) LookupName(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", media.ErrUserNotFound
	}
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT name FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("users: %q: %w", userID, media.ErrUserNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("users: lookup %q: %w", userID, err)
	}
	return name, nil
}
