package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fightcard/fightcard-api/internal/model"
)

const userColumns = "id,email,first_name,last_name,avatar,password_hash,refresh_token_hash,role_id,created_at,updated_at"

// UserRepo persists users in the `users` table. Refresh tokens are stored as
// a single SHA-256 hash column on the user row: at most one active session
// per user, revoked by nulling the column.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar,
		&u.PasswordHash, &u.RefreshTokenHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns the stored record. RoleID stays null at
// registration; roles are assigned later through the users endpoint.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, first_name, last_name, password_hash, role_id) VALUES (?,?,?,?,?)",
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.RoleID)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches a user by its exact stored email. Emails are
// case-sensitive; the column must use a case-sensitive collation.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByRefreshHash fetches the user whose stored refresh-token hash matches.
// Refresh lookups go through this instead of decoding the token's subject
// first, so only a currently active refresh token can mint access tokens.
func (r *UserRepo) GetByRefreshHash(ctx context.Context, hash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token_hash=? LIMIT 1", hash))
}

// SetRefreshHash stores the hash of a freshly issued refresh token, or nulls
// it on sign-out. Nulling an already-null column is a no-op, which makes
// sign-out idempotent.
func (r *UserRepo) SetRefreshHash(ctx context.Context, userID uint64, hash sql.NullString) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", hash, userID)
	return err
}

// Update persists profile fields, password hash, avatar and role assignment.
// Callers decide which fields changed; the repository writes the whole row.
func (r *UserRepo) Update(ctx context.Context, u model.User) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, first_name=?, last_name=?, avatar=?, password_hash=?, role_id=? WHERE id=?",
		u.Email, u.FirstName, u.LastName, u.Avatar, u.PasswordHash, u.RoleID, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, u.ID)
}

// Delete removes a user row.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Page returns one page of users plus listing metadata.
func (r *UserRepo) Page(ctx context.Context, page int) ([]model.User, PageMeta, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, PageMeta{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?",
		PageSize, Offset(page))
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar,
			&u.PasswordHash, &u.RefreshTokenHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, PageMeta{}, err
		}
		users = append(users, u)
	}
	return users, NewPageMeta(total, page), rows.Err()
}

// isDuplicate reports whether err is a MySQL unique-constraint violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
