// Package postgres implements the metadata repository on PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE source (
//	    ordinal     INT NOT NULL,
//	    id          UUID PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    kind        TEXT NOT NULL,
//	    category    TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    tags        TEXT[] NOT NULL DEFAULT '{}',
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    file_key    TEXT,
//	    file_size   BIGINT,
//	    mime_type   TEXT,
//	    text_key    TEXT,
//	    url         TEXT
//	);
//
//	CREATE TABLE settings (
//	    key   TEXT PRIMARY KEY,
//	    value TEXT NOT NULL
//	);
//
// Save replaces the list transactionally, keeping the full-list-overwrite
// contract of simplesource.SourceRepository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-source/pkg/simplesource"
)

const settingsWebhookKey = "webhook_url"

// Repository implements simplesource.SourceRepository using PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load returns the persisted list ordered by ordinal (most-recent-first)
func (r *Repository) Load(ctx context.Context) ([]*simplesource.Source, error) {
	query := `
		SELECT id, name, kind, category, description, tags, created_at,
		       file_key, file_size, mime_type, text_key, url
		FROM source
		ORDER BY ordinal`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("load sources", err)
	}
	defer rows.Close()

	var sources []*simplesource.Source
	for rows.Next() {
		var (
			src      simplesource.Source
			fileKey  *string
			fileSize *int64
			mimeType *string
			textKey  *string
			rawURL   *string
		)
		err := rows.Scan(&src.ID, &src.Name, &src.Kind, &src.Category,
			&src.Description, &src.Tags, &src.CreatedAt,
			&fileKey, &fileSize, &mimeType, &textKey, &rawURL)
		if err != nil {
			return nil, handlePostgresError("scan source", err)
		}

		switch src.Kind {
		case simplesource.KindFile:
			payload := &simplesource.FilePayload{}
			if fileKey != nil {
				payload.Key = *fileKey
			}
			if fileSize != nil {
				payload.Size = *fileSize
			}
			if mimeType != nil {
				payload.MimeType = *mimeType
			}
			src.File = payload
		case simplesource.KindText:
			payload := &simplesource.TextPayload{}
			if textKey != nil {
				payload.Key = *textKey
			}
			src.Text = payload
		case simplesource.KindURL:
			payload := &simplesource.URLPayload{}
			if rawURL != nil {
				payload.URL = *rawURL
			}
			src.URL = payload
		}

		sources = append(sources, &src)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("load sources", err)
	}

	return sources, nil
}

// Save replaces the persisted list inside one transaction
func (r *Repository) Save(ctx context.Context, sources []*simplesource.Source) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("begin save", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM source`); err != nil {
		return handlePostgresError("clear sources", err)
	}

	query := `
		INSERT INTO source (
			ordinal, id, name, kind, category, description, tags, created_at,
			file_key, file_size, mime_type, text_key, url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for i, src := range sources {
		var (
			fileKey  *string
			fileSize *int64
			mimeType *string
			textKey  *string
			rawURL   *string
		)
		switch {
		case src.File != nil:
			fileKey = &src.File.Key
			fileSize = &src.File.Size
			mimeType = &src.File.MimeType
		case src.Text != nil:
			textKey = &src.Text.Key
		case src.URL != nil:
			rawURL = &src.URL.URL
		}

		tags := src.Tags
		if tags == nil {
			tags = []string{}
		}

		_, err := tx.Exec(ctx, query,
			i, src.ID, src.Name, src.Kind, src.Category, src.Description,
			tags, src.CreatedAt, fileKey, fileSize, mimeType, textKey, rawURL)
		if err != nil {
			return handlePostgresError("insert source", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("commit save", err)
	}
	return nil
}

// LoadSettings returns the persisted settings, zero-valued when absent
func (r *Repository) LoadSettings(ctx context.Context) (*simplesource.Settings, error) {
	var settings simplesource.Settings

	err := r.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, settingsWebhookKey,
	).Scan(&settings.WebhookURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &settings, nil
		}
		return nil, handlePostgresError("load settings", err)
	}

	return &settings, nil
}

// SaveSettings upserts the persisted settings
func (r *Repository) SaveSettings(ctx context.Context, settings *simplesource.Settings) error {
	query := `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	_, err := r.pool.Exec(ctx, query, settingsWebhookKey, settings.WebhookURL)
	if err != nil {
		return handlePostgresError("save settings", err)
	}
	return nil
}

// FindByID is a convenience lookup used by tooling; the service goes through
// Load so list ordering stays authoritative.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*simplesource.Source, error) {
	sources, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if src.ID == id {
			return src, nil
		}
	}
	return nil, simplesource.ErrSourceNotFound
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate source entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
