// internal/db/users.go
package db

import (
	"context"
	"database/sql"
)

const userColumns = "id, email, name, phone, password_hash, is_admin, created_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Email        string
	Name         string
	Phone        sql.NullString
	PasswordHash sql.NullString
	IsAdmin      bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, phone, password_hash, is_admin)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.Email, arg.Name, arg.Phone, arg.PasswordHash, arg.IsAdmin,
	)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}
