package userstore

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/domain"
)

const usersSchema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    hashed_password text NOT NULL,
    first_name text NOT NULL DEFAULT '',
    last_name text NOT NULL DEFAULT '',
    reset_token text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);
`

const userColumns = `id, email, hashed_password, first_name, last_name, reset_token, created_at, updated_at`

// SQLStore is a UserRepository over the postgres users table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore returns a SQLStore
func NewSQLStore(db *sqlx.DB) SQLStore {
	return SQLStore{db}
}

// Migrate creates the users table if it is missing
func (s SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, usersSchema)
	return err
}

// sortedNames keeps generated SQL stable for a given map
func sortedNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find selects the users matching filter. Column names come only from domain.UserFields.
func (s SQLStore) Find(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	if err := validateFields(filter); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	clauses := []string{}
	for _, name := range sortedNames(filter) {
		args = append(args, filter[name])
		clauses = append(clauses, name+" = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at, id`

	users := []domain.User{}
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errors.Wrap(err, "Failed to search users")
	}

	return users, nil
}

// Get returns the user with id, or ErrUserNotFound
func (s SQLStore) Get(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{}
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, errors.Wrap(err, "Failed to fetch user")
	}

	return user, nil
}

// Create inserts user and returns it with its generated id and timestamps
func (s SQLStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	createQuery := `INSERT INTO users (email, hashed_password, first_name, last_name, reset_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	created := domain.User{}
	err := s.db.GetContext(ctx, &created, createQuery, user.Email, user.HashedPassword, user.FirstName, user.LastName, user.ResetToken)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "Failed to create user")
	}

	return created, nil
}

// Update assigns fields on the user with id
func (s SQLStore) Update(ctx context.Context, id string, fields domain.Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	args := []interface{}{}
	sets := []string{}
	for _, name := range sortedNames(fields) {
		args = append(args, fields[name])
		sets = append(sets, name+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, id)

	updateQuery := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW() WHERE id::text = $` + strconv.Itoa(len(args))

	result, err := s.db.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		return errors.Wrap(err, "Failed to update user")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Delete removes the user with id
func (s SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id::text = $1`, id)
	if err != nil {
		return errors.Wrap(err, "Failed to delete user")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
