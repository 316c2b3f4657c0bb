package storage

import (
	"context"
	"database/sql"
)

// FindUserByUsername looks up the default attribution principal. A missing
// user is not an error; the caller decides whether to proceed unattributed.
func (d *DB) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var fullName sql.NullString
	err := d.sql.QueryRowContext(ctx, "SELECT id, username, full_name FROM users WHERE username = ?", username).Scan(&u.ID, &u.Username, &fullName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	return &u, nil
}

// EnsureUser creates the user if absent and returns its id.
func (d *DB) EnsureUser(ctx context.Context, username, fullName string) (int64, error) {
	existing, err := d.FindUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	res, err := d.sql.ExecContext(ctx, "INSERT INTO users(username, full_name) VALUES(?,?)", username, nullIfEmpty(fullName))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
