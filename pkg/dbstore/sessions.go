package dbstore

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS user_sessions (
    session_id text PRIMARY KEY,
    user_id text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS user_sessions_user_id_idx
ON user_sessions (user_id);
`

// Migrate creates the user_sessions table if it is missing
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, sessionsSchema)
	return err
}
