package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/training-platform/internal/model"
	"github.com/iliyamo/training-platform/internal/utils"
)

// UserRepo persists user accounts and the single live refresh token
// carried on each user row.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,full_name,email,password_hash,role,phone,refresh_token_hash,refresh_token_expires_at,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. The password is hashed
// here so plaintext never crosses the repository boundary.
func (r *UserRepo) Create(ctx context.Context, name, email, password, phone string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash, role, phone) VALUES (?,?,?,?,?)",
		name, email, hash, string(role), phone)
	if err != nil {
		// MySQL duplicate-key error code.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetRefresh stores a new refresh token hash and expiry on the user
// row, unconditionally overwriting whatever was there. Used on login,
// where the client has just re-proven the password and any previous
// session token is superseded.
func (r *UserRepo) SetRefresh(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=?",
		hash, exp, userID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// RotateRefresh replaces the stored refresh token hash with newHash,
// but only if the row still holds oldHash. The conditional update
// makes rotation atomic against concurrent refresh calls for the same
// user: exactly one of two racing rotations can match the previous
// value, the other gets ErrRefreshMismatch and no state changes.
func (r *UserRepo) RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, exp, userID, oldHash)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrRefreshMismatch)
}

// ClearRefresh drops the stored refresh token, ending the session.
// Clearing an already-empty row is not an error.
func (r *UserRepo) ClearRefresh(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL WHERE id=?",
		userID)
	return err
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, newHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", newHash, userID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// UpdateEmail changes the account email, surfacing duplicates as
// ErrEmailExists just like Create.
func (r *UserRepo) UpdateEmail(ctx context.Context, userID uint64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	// No RowsAffected check here: MySQL reports zero affected rows when
	// the new email equals the current one, which is not a failure.
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=? WHERE id=?", email, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// ListUsers returns all accounts ordered by creation, for the admin
// user-management surface.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// scanOne adapts a QueryRow result, mapping sql.ErrNoRows to ErrNotFound.
func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

type scanner interface{ Scan(dest ...any) error }

func scanUser(s scanner) (model.User, error) {
	var (
		u      model.User
		role   string
		rtHash sql.NullString
		rtExp  sql.NullTime
	)
	err := s.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role, &u.Phone,
		&rtHash, &rtExp, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if rtHash.Valid {
		u.RefreshTokenHash = &rtHash.String
	}
	if rtExp.Valid {
		t := rtExp.Time
		u.RefreshTokenExpiresAt = &t
	}
	return u, nil
}

func oneRowOr(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
