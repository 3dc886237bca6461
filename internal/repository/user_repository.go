package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/evgkirov/member-content-system/internal/model"
)

const userColumns = "id,email,name,password_hash,role,is_active,token_version,force_logout_flag,last_device_id,last_login_at,created_at,updated_at"

// UserRepo provides access to the users table.
type UserRepo struct{ DB DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		deviceID  sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TokenVersion, &u.ForceLogout, &deviceID, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if deviceID.Valid {
		u.LastDeviceID = &deviceID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// ByEmail fetches a user by exact email match. The email column uses a
// binary collation so the lookup is case-sensitive.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// ByID fetches a user by id.
func (r *UserRepo) ByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Create inserts a new user row. Duplicate emails surface as ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,email,name,password_hash,role,is_active) VALUES (?,?,?,?,?,?)",
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// List returns users matching the optional search term (substring of name
// or email) with offset/limit pagination, newest first.
func (r *UserRepo) List(ctx context.Context, search string, offset, limit int) ([]model.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if search != "" {
		query += " WHERE LOWER(email) LIKE ? OR LOWER(name) LIKE ?"
		like := "%" + strings.ToLower(search) + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// UpdateProfile updates name, role and active flag.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, name, role string, isActive bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, role=?, is_active=? WHERE id=?",
		name, role, isActive, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the password hash and invalidates every live
// session: the version bump and the force-logout flag are part of the same
// statement, so no credential minted against the old password survives.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, token_version=token_version+1, force_logout_flag=1 WHERE id=?",
		passwordHash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ForceLogout raises the force-logout flag. The user's next request fails
// authorization regardless of the version embedded in their credential;
// the flag clears on their next successful login.
func (r *UserRepo) ForceLogout(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET force_logout_flag=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	// A flag that is already raised affects no rows; only a missing user
	// is an error.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate marks the user inactive and invalidates all sessions.
func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0, token_version=token_version+1, force_logout_flag=1 WHERE id=?",
		id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
