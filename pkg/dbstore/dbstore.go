package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trussworks/userauth/pkg/domain"
)

// uniqueViolation is the postgres error code for a unique constraint failure
const uniqueViolation = "23505"

// DBStore keeps sessions in the user_sessions table.
type DBStore struct {
	db *sqlx.DB
}

func NewDBStore(db *sqlx.DB) DBStore {
	return DBStore{
		db,
	}
}

func (s DBStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateSession inserts a new session row. It returns ErrSessionExists if the key is taken.
func (s DBStore) CreateSession(ctx context.Context, session domain.Session) error {
	createQuery := `INSERT INTO user_sessions (session_id, user_id, created_at)
		VALUES ($1, $2, $3)`

	_, createErr := s.db.ExecContext(ctx, createQuery, session.SessionKey, session.UserID, session.CreatedAt.UTC())
	if createErr != nil {
		if isUniqueViolation(createErr) {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("Unexpectedly failed to create a session: %w", createErr)
	}

	return nil
}

// FetchSession returns the session row for sessionKey, expired or not.
func (s DBStore) FetchSession(ctx context.Context, sessionKey string) (domain.Session, error) {
	fetchQuery := `SELECT session_id, user_id, created_at FROM user_sessions WHERE session_id = $1`

	session := domain.Session{}
	selectErr := s.db.GetContext(ctx, &session, fetchQuery, sessionKey)
	if selectErr != nil {
		if selectErr == sql.ErrNoRows {
			return domain.Session{}, domain.ErrValidSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("Failed to fetch a session row: %w", selectErr)
	}

	// time.Times come back from the db with no tz info, so let's set it to UTC to be safe and consistent.
	session.CreatedAt = session.CreatedAt.UTC()

	return session, nil
}

// DeleteSession removes a session record from the db
func (s DBStore) DeleteSession(ctx context.Context, sessionKey string) error {
	deleteQuery := "DELETE FROM user_sessions WHERE session_id = $1"

	sqlResult, deleteErr := s.db.ExecContext(ctx, deleteQuery, sessionKey)
	if deleteErr != nil {
		return fmt.Errorf("Failed to delete session: %w", deleteErr)
	}

	rowsAffected, _ := sqlResult.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrValidSessionNotFound
	}

	return nil
}

// DSN builds a postgres connection string. Empty password is left out.
func DSN(host, port, name, user, password, sslmode string) string {
	userInfo := user
	if password != "" {
		userInfo = user + ":" + password
	}

	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", userInfo, host, port, name, strings.ToLower(sslmode))
}
