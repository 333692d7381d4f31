package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var omnicastSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL,
		avatar_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS platforms (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		platform_name TEXT NOT NULL,
		is_connected BOOLEAN NOT NULL DEFAULT FALSE,
		access_token TEXT,
		refresh_token TEXT,
		token_expiry TIMESTAMPTZ,
		platform_user_id TEXT,
		platform_username TEXT,
		additional_data JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS idx_platforms_user ON platforms (user_id)`,
	`CREATE TABLE IF NOT EXISTS uploads (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT,
		tags TEXT,
		file_name TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		duration INTEGER,
		thumbnail_url TEXT,
		visibility TEXT NOT NULL DEFAULT 'public',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_uploads_user_uploaded ON uploads (user_id, uploaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS upload_platforms (
		id BIGSERIAL PRIMARY KEY,
		upload_id BIGINT NOT NULL REFERENCES uploads(id),
		platform_id BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		platform_video_id TEXT,
		platform_video_url TEXT,
		upload_progress INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		platform_settings JSONB NOT NULL DEFAULT '{}'::jsonb,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_upload_platforms_upload ON upload_platforms (upload_id)`,
}

// EnsureOmniCastSchema creates the tables used by PostgresStorage if they are
// missing. Safe to call at every startup.
func EnsureOmniCastSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i, ddl := range omnicastSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
