// Package auth implements the session authority: it decides whether a
// presented credential is still valid and owns the login/logout paths that
// advance the per-user token_version counter.
//
// Credentials are stateless, so revocation works purely by comparing the
// version embedded in a credential against the stored counter; the
// force-logout flag is the immediate override for the window between an
// admin action and the user's next request.
package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/evgkirov/member-content-system/internal/model"
	"github.com/evgkirov/member-content-system/internal/repository"
	"github.com/evgkirov/member-content-system/internal/token"
)

var (
	// ErrAuthFailed covers every login failure: unknown email, wrong
	// password or inactive account. Callers never learn which.
	ErrAuthFailed = errors.New("invalid credentials")

	// ErrUnauthenticated covers every unusable credential: missing,
	// malformed, expired or superseded. The distinction lives in logs only.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity is valid but lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// UserStore is the persistence boundary the session authority needs.
// RecordLogin and RecordLogout are transactional: the version bump, the
// user row stamps and the audit append commit together.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)
	RecordLogin(ctx context.Context, id, deviceID, deviceInfo, ip string) (int, error)
	RecordLogout(ctx context.Context, id, ip string) error
}

// Credential is a freshly minted bearer token and its expiry.
type Credential struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service is the session authority.
type Service struct {
	users UserStore
	codec *token.Codec
}

func NewService(users UserStore, codec *token.Codec) *Service {
	return &Service{users: users, codec: codec}
}

// Authenticate validates the email/password pair and, on success,
// atomically advances token_version, clears the force-logout flag, stamps
// the device and login time, records the login audit entry and mints a
// credential embedding the new version. Every prior credential for the
// user is superseded by the bump.
func (s *Service) Authenticate(ctx context.Context, email, password, deviceID, deviceInfo, ip string) (Credential, model.User, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Credential{}, model.User{}, ErrAuthFailed
	}
	if err != nil {
		return Credential{}, model.User{}, err
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return Credential{}, model.User{}, ErrAuthFailed
	}
	if !u.IsActive {
		// A deactivated account must not be able to clear its own
		// force-logout flag by logging back in.
		return Credential{}, model.User{}, ErrAuthFailed
	}

	version, err := s.users.RecordLogin(ctx, u.ID, deviceID, deviceInfo, ip)
	if err != nil {
		return Credential{}, model.User{}, err
	}
	u.TokenVersion = version
	u.ForceLogout = false

	raw, exp, err := s.codec.Mint(u.ID, version, time.Now().UTC())
	if err != nil {
		return Credential{}, model.User{}, err
	}
	return Credential{Token: raw, ExpiresAt: exp}, u, nil
}

// Authorize re-derives the validity of a presented credential: the
// signature and expiry via the codec, then the stored counter, the
// force-logout flag and the active flag against the identity row.
func (s *Service) Authorize(ctx context.Context, bearer string) (model.User, error) {
	claims, err := s.codec.Verify(bearer)
	if err != nil {
		return model.User{}, ErrUnauthenticated
	}

	u, err := s.users.UserByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, err
	}
	if !u.IsActive {
		log.Printf("auth: rejected credential for inactive user %s", u.ID)
		return model.User{}, ErrUnauthenticated
	}
	if u.TokenVersion != claims.TokenVersion || u.ForceLogout {
		// Superseded session: a newer login bumped the counter, or an
		// admin forced logout. Indistinguishable from a bad token for the
		// caller.
		log.Printf("auth: superseded credential for user %s (embedded=%d stored=%d forced=%t)",
			u.ID, claims.TokenVersion, u.TokenVersion, u.ForceLogout)
		return model.User{}, ErrUnauthenticated
	}
	return u, nil
}

// RequireRole layers a role check on top of Authorize.
func (s *Service) RequireRole(u model.User, role string) error {
	if u.Role != role {
		return ErrForbidden
	}
	return nil
}

// Logout supersedes every outstanding credential for the user by bumping
// token_version. The next successful login mints against the new counter.
func (s *Service) Logout(ctx context.Context, u model.User, ip string) error {
	return s.users.RecordLogout(ctx, u.ID, ip)
}
