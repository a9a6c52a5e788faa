// Package services – UserService
//
// This file implements the UserService, which manages account registration,
// login, profile updates, and deletion. Access control follows the platform
// policy: a user may always act on their own account, anyone else needs the
// Admin floor, and no update may grant an account a higher authority than it
// already holds.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/repo"
)

// defaultAvatar is assigned to freshly registered accounts.
const defaultAvatar = "/assets/avatar/default.png"

// UserService implements the use-cases around user accounts.
type UserService struct {
	// DB is the database handle used for all user operations.
	DB *gorm.DB
	// Tokens issues and verifies the signed credentials used for access control.
	Tokens *auth.TokenManager
}

// UserUpdate is a partial update of a user row. Nil fields are left as-is.
type UserUpdate struct {
	UID       int64
	Avatar    *string
	Account   *string
	Password  *string
	Authority *auth.Authority
}

// Register creates a new account with the User authority level and a bcrypt
// password hash. The account name must be unused.
func (s *UserService) Register(ctx context.Context, account, password string) (*domain.User, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return nil, E(KindValidationFailed, "empty account or password")
	}

	if _, err := repo.GetUserByAccount(ctx, s.DB, account); err == nil {
		return nil, E(KindConflict, "account: %s", account)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, E(KindPersistenceFailure, "lookup account %q: %v", account, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, E(KindSerializationFailure, "hash password: %v", err)
	}

	u := &domain.User{
		Account:   account,
		Password:  hash,
		Avatar:    defaultAvatar,
		JoinTime:  time.Now().UTC(),
		Authority: auth.User,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, E(KindConflict, "account: %s", account)
		}
		return nil, E(KindPersistenceFailure, "create user: %v", err)
	}
	return u, nil
}

// Login checks the password for an account and, on success, issues a signed
// credential carrying the account's uid and authority. The expiry is
// returned so the transport layer can mirror it on a cookie.
func (s *UserService) Login(ctx context.Context, account, password string) (*domain.User, string, time.Time, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return nil, "", time.Time{}, E(KindValidationFailed, "empty account or password")
	}

	u, err := repo.GetUserByAccount(ctx, s.DB, account)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", time.Time{}, E(KindNotFound, "account: %s", account)
		}
		return nil, "", time.Time{}, E(KindPersistenceFailure, "lookup account %q: %v", account, err)
	}
	if err := auth.VerifyPassword(u.Password, password); err != nil {
		return nil, "", time.Time{}, E(KindWrongPassword, "account: %s", account)
	}

	token, expiresAt, err := s.Tokens.Issue(u.UID, u.Authority)
	if err != nil {
		return nil, "", time.Time{}, E(KindSerializationFailure, "issue token: %v", err)
	}
	return u, token, expiresAt, nil
}

// Update applies a partial update to the account identified by upd.UID.
// The caller must own the account or hold the Admin floor. An update may
// never raise an account's authority above its stored level.
func (s *UserService) Update(ctx context.Context, token string, upd UserUpdate) error {
	if upd.UID == 0 {
		return E(KindValidationFailed, "uid is required")
	}
	if !s.Tokens.Authorize(token, upd.UID, auth.Admin) {
		return E(KindInvalidCredential, "not allowed to update user %d", upd.UID)
	}

	u, err := repo.GetUser(ctx, s.DB, upd.UID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "user: %d", upd.UID)
		}
		return E(KindPersistenceFailure, "load user %d: %v", upd.UID, err)
	}

	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Account != nil {
		account := strings.TrimSpace(*upd.Account)
		if account == "" {
			return E(KindValidationFailed, "account must not be empty")
		}
		u.Account = account
	}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return E(KindSerializationFailure, "hash password: %v", err)
		}
		u.Password = hash
	}
	if upd.Authority != nil {
		if !upd.Authority.Valid() {
			return E(KindValidationFailed, "unknown authority rank %d", int16(*upd.Authority))
		}
		if *upd.Authority > u.Authority {
			return E(KindInvalidCredential, "user %d may not be granted an authority above its stored level", u.UID)
		}
		u.Authority = *upd.Authority
	}

	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return E(KindConflict, "account: %s", u.Account)
		}
		return E(KindPersistenceFailure, "save user %d: %v", u.UID, err)
	}
	return nil
}

// Get returns the account with the given uid.
func (s *UserService) Get(ctx context.Context, uid int64) (*domain.User, error) {
	if uid == 0 {
		return nil, E(KindValidationFailed, "uid is required")
	}
	u, err := repo.GetUser(ctx, s.DB, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, E(KindNotFound, "user: %d", uid)
		}
		return nil, E(KindPersistenceFailure, "load user %d: %v", uid, err)
	}
	return u, nil
}

// Delete removes the account identified by uid. The caller must own the
// account or hold the Admin floor.
func (s *UserService) Delete(ctx context.Context, token string, uid int64) error {
	if uid == 0 {
		return E(KindValidationFailed, "uid is required")
	}
	if !s.Tokens.Authorize(token, uid, auth.Admin) {
		return E(KindInvalidCredential, "not allowed to delete user %d", uid)
	}
	if err := repo.DeleteUser(ctx, s.DB, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "user: %d", uid)
		}
		return E(KindPersistenceFailure, "delete user %d: %v", uid, err)
	}
	return nil
}
