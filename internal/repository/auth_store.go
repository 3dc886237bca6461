package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evgkirov/member-content-system/internal/model"
)

// AuthStore backs the session authority. Unlike the other repositories it
// holds the pooled *sql.DB directly because its operations own their
// transaction: the token_version bump, the user row stamps and the audit
// append must commit together, and the bump has to be a single
// read-then-increment under row locking so concurrent logins cannot lose
// an update.
type AuthStore struct {
	DB *sql.DB
}

func NewAuthStore(db *sql.DB) *AuthStore { return &AuthStore{DB: db} }

// UserByEmail implements auth.UserStore.
func (s *AuthStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return NewUserRepo(s.DB).ByEmail(ctx, email)
}

// UserByID implements auth.UserStore.
func (s *AuthStore) UserByID(ctx context.Context, id string) (model.User, error) {
	return NewUserRepo(s.DB).ByID(ctx, id)
}

// RecordLogin atomically increments the user's token_version, clears the
// force-logout flag, stamps the device and login time, appends the login
// audit entry and returns the new version. The increment happens in SQL
// (token_version=token_version+1), never as a read-modify-write in two
// round trips.
func (s *AuthStore) RecordLogin(ctx context.Context, id, deviceID, deviceInfo, ip string) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin login tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET token_version=token_version+1, force_logout_flag=0, last_device_id=?, last_login_at=UTC_TIMESTAMP() WHERE id=?",
		deviceID, id)
	if err != nil {
		return 0, err
	}
	if err := requireAffected(res); err != nil {
		return 0, err
	}

	// Re-read inside the same transaction so the returned version is the
	// one this login owns even under concurrent logins.
	var version int
	if err := tx.QueryRowContext(ctx,
		"SELECT token_version FROM users WHERE id=?", id).Scan(&version); err != nil {
		return 0, err
	}

	meta := fmt.Sprintf(`{"device_id":%q}`, deviceID)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO audit_logs (user_id, action, target_id, device_info, ip_address, meta) VALUES (?,?,NULL,?,?,?)",
		id, "login", nullable(deviceInfo), nullable(ip), meta); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit login tx: %w", err)
	}
	return version, nil
}

// RecordLogout increments token_version so every outstanding credential is
// superseded, clears the force-logout flag and appends the logout audit
// entry in the same transaction.
func (s *AuthStore) RecordLogout(ctx context.Context, id, ip string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin logout tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET token_version=token_version+1, force_logout_flag=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO audit_logs (user_id, action, ip_address) VALUES (?,?,?)",
		id, "logout", nullable(ip)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit logout tx: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
