package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{
		db: db,
	}
}

// CreateUser inserts a credential record. The password must already be hashed.
func (s *SQLiteUserStore) CreateUser(ctx context.Context, user User) (int64, error) {
	eu, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return 0, fmt.Errorf("checking if user exists: %w", err)
	}

	if eu != nil {
		return 0, ErrConflictedUser
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, display_name) VALUES (@username, @password_hash, @display_name)",
		sql.Named("username", user.Username),
		sql.Named("password_hash", user.PasswordHash),
		sql.Named("display_name", sql.NullString{String: user.DisplayName, Valid: user.DisplayName != ""}))
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *SQLiteUserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, display_name FROM users WHERE username = ? LIMIT 1", username)

	user := new(User)
	var displayName sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&displayName,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.DisplayName = displayName.String
	return user, nil
}
