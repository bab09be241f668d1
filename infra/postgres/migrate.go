package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS places (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		address       TEXT NOT NULL,
		place_url     TEXT NOT NULL,
		longitude     DOUBLE PRECISION NOT NULL,
		latitude      DOUBLE PRECISION NOT NULL,
		category      TEXT NOT NULL,
		sub_category  TEXT NOT NULL DEFAULT 'NONE',
		description   TEXT NOT NULL DEFAULT '',
		image_urls    TEXT[] NOT NULL DEFAULT '{}',
		view_count    BIGINT NOT NULL DEFAULT 0,
		comment_count BIGINT NOT NULL DEFAULT 0,
		password      TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT places_place_url_key UNIQUE (place_url),
		CONSTRAINT places_name_address_key UNIQUE (name, address)
	)`,
	`CREATE INDEX IF NOT EXISTS places_category_idx ON places (category, sub_category)`,
	`CREATE INDEX IF NOT EXISTS places_created_at_idx ON places (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id         TEXT PRIMARY KEY,
		place_id   TEXT NOT NULL,
		parent_id  TEXT,
		nickname   TEXT NOT NULL,
		password   TEXT NOT NULL,
		content    TEXT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS comments_place_idx ON comments (place_id, parent_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS comments_parent_idx ON comments (parent_id) WHERE parent_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS parties (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		status       TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		location     TEXT NOT NULL,
		date         TIMESTAMPTZ NOT NULL,
		max_members  INTEGER,
		member_count INTEGER NOT NULL DEFAULT 0,
		tags         TEXT[] NOT NULL DEFAULT '{}',
		nickname     TEXT NOT NULL,
		password     TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS party_members (
		id         TEXT PRIMARY KEY,
		party_id   TEXT NOT NULL REFERENCES parties (id) ON DELETE CASCADE,
		nickname   TEXT NOT NULL,
		password   TEXT NOT NULL,
		is_creator BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at  TIMESTAMPTZ NOT NULL,
		CONSTRAINT party_members_party_nickname_key UNIQUE (party_id, nickname)
	)`,
}

// Migrate creates the tables and indexes when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	zap.L().Info("Postgres schema ready", zap.Int("statements", len(schema)))
	return nil
}
