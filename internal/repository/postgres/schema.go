package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the prefixed tables if they do not exist yet.
//
// Slot uniqueness under a parent is deliberately not a database constraint:
// it is enforced by the draft validator, and a forced publish is allowed to
// land conflicting slots.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				parent_id  TEXT REFERENCES %s(id),
				label      TEXT NOT NULL,
				depth      INT NOT NULL,
				slot       INT NOT NULL,
				leaf       BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Nodes, tables.Nodes),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_parent_idx ON %s (parent_id, slot)`,
			tables.Nodes, tables.Nodes),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id              TEXT PRIMARY KEY,
				parent_id       TEXT NOT NULL,
				target_children JSONB NOT NULL DEFAULT '[]',
				status          TEXT NOT NULL,
				plan            JSONB,
				validation      JSONB,
				metadata        JSONB,
				created_at      TIMESTAMPTZ NOT NULL,
				updated_at      TIMESTAMPTZ NOT NULL,
				published_at    TIMESTAMPTZ,
				published_by    TEXT
			)`, tables.Drafts),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           TEXT PRIMARY KEY,
				draft_id     TEXT NOT NULL,
				action       TEXT NOT NULL,
				actor        TEXT NOT NULL,
				ts           TIMESTAMPTZ NOT NULL,
				before_state JSONB,
				after_state  JSONB,
				success      BOOLEAN NOT NULL,
				message      TEXT NOT NULL DEFAULT '',
				metadata     JSONB
			)`, tables.DraftAudit),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_draft_idx ON %s (draft_id, ts)`,
			tables.DraftAudit, tables.DraftAudit),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				operation  TEXT NOT NULL,
				target_id  TEXT NOT NULL,
				actor      TEXT NOT NULL,
				payload    JSONB,
				undoable   BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.AuditLog),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
