package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the mercato store.
var Migrations = migrate.NewGroup("mercato")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_mercato_events",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mercato_events (
    id          TEXT PRIMARY KEY,
    seq         BIGINT NOT NULL,
    type        TEXT NOT NULL DEFAULT '',
    payload     JSONB NOT NULL DEFAULT '{}',
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_mercato_events_seq ON mercato_events (seq);
CREATE INDEX IF NOT EXISTS idx_mercato_events_type ON mercato_events (type, seq);
CREATE INDEX IF NOT EXISTS idx_mercato_events_occurred_at ON mercato_events (occurred_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mercato_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_mercato_checkpoints",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mercato_checkpoints (
    id         TEXT PRIMARY KEY,
    seq        BIGINT NOT NULL,
    state      JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mercato_checkpoints_seq ON mercato_checkpoints (seq DESC, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mercato_checkpoints`)
				return err
			},
		},
	)
}
