// Package handlers implements the HTTP surface of the judge backend:
//   - POST /user/register /user/login /user/update /user/query /user/delete
//   - POST /problem/insert /problem/update /problem/query /problem/delete
//   - POST /record/insert /record/update /record/query
//   - GET  /record/list   (paginated, ETag support)
//
// Every endpoint funnels through run() in response.go, so the wire shape and
// error classification are identical across entities.
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/repo"
	"github.com/openjudge/go-judge-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService defines account lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Register creates a new account at the base authority level.
	Register(ctx context.Context, account, password string) (*domain.User, error)
	// Login checks credentials and mints a signed token with its expiry.
	Login(ctx context.Context, account, password string) (*domain.User, string, time.Time, error)
	// Update patches a user row subject to the access decision.
	Update(ctx context.Context, token string, upd services.UserUpdate) error
	// Get returns a user row by id.
	Get(ctx context.Context, uid int64) (*domain.User, error)
	// Delete removes a user row subject to the access decision.
	Delete(ctx context.Context, token string, uid int64) error
}

// ProblemService defines problem bank operations consumed by HTTP handlers.
type ProblemService interface {
	// Create uploads a new problem owned by the credential's subject.
	Create(ctx context.Context, token string, in services.ProblemInput) (*domain.Problem, error)
	// Update patches a problem row subject to the access decision.
	Update(ctx context.Context, token string, upd services.ProblemUpdate) error
	// Get returns a problem row by id.
	Get(ctx context.Context, id int64) (*domain.Problem, error)
	// Delete removes a problem row subject to the access decision.
	Delete(ctx context.Context, token string, id int64) error
}

// RecordService defines judge record operations consumed by HTTP handlers.
type RecordService interface {
	// Submit persists a submission and relays it to the judging service. The
	// bool reports whether the result is an idempotent replay.
	Submit(ctx context.Context, token string, in services.SubmitInput, idemKey string) (*domain.Record, bool, error)
	// Report patches a record with a verdict from a judging worker.
	Report(ctx context.Context, token string, upd services.RecordUpdate) error
	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, f repo.RecordFilter) ([]domain.Record, error)
	// Stats returns the record count and latest modification time, for
	// conditional listing responses.
	Stats(ctx context.Context) (int64, *time.Time, error)
	// ListPage returns a page of records and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Record, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for users, problems, and records.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	userSvc    UserService
	problemSvc ProblemService
	recordSvc  RecordService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(userSvc UserService, problemSvc ProblemService, recordSvc RecordService) *Handlers {
	return &Handlers{userSvc: userSvc, problemSvc: problemSvc, recordSvc: recordSvc}
}

// tokenCookie is the cookie set at login and honored on later requests.
// Judging workers send the same token in the Authorization header instead.
const tokenCookie = "token"

// tokenFrom extracts the presented credential from the token cookie or the
// Authorization header (raw or Bearer form). The second return value reports
// presence; validity is decided by the services.
func tokenFrom(c *gin.Context) (string, bool) {
	if v, err := c.Cookie(tokenCookie); err == nil && v != "" {
		return v, true
	}
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		h = strings.TrimSpace(h[len("bearer "):])
	}
	return h, h != ""
}

// requireToken is tokenFrom with absence mapped to the missing-credential
// category.
func requireToken(c *gin.Context) (string, error) {
	token, ok := tokenFrom(c)
	if !ok {
		return "", services.E(services.KindMissingCredential, "no token presented")
	}
	return token, nil
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// LoginResponse carries the authenticated user and the minted token. The
// token is also set as a cookie for browser clients; judging workers read it
// from the payload and replay it in the Authorization header.
type LoginResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UpdateUserRequest is the JSON payload for patching a user. Absent fields
// are left untouched.
type UpdateUserRequest struct {
	UID       int64           `json:"uid"`
	Avatar    *string         `json:"avatar"`
	Account   *string         `json:"account"`
	Password  *string         `json:"password"`
	Authority *auth.Authority `json:"authority"`
}

// UserIDRequest addresses a single user by id (query and delete).
type UserIDRequest struct {
	UID int64 `json:"uid"`
}

//
// Endpoints
//

// Register creates an account. The new user starts at the base authority
// level; promotion happens through /user/update by an admin.
func (h *Handlers) Register(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		var req RegisterRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		u, err := h.userSvc.Register(c.Request.Context(), req.Account, req.Password)
		if err != nil {
			return err
		}
		successData(c, u)
		return nil
	})
}

// Login checks the account credentials, mints a token, and sets it as a
// cookie scoped to the site root.
func (h *Handlers) Login(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		var req LoginRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		u, token, expiresAt, err := h.userSvc.Login(c.Request.Context(), req.Account, req.Password)
		if err != nil {
			return err
		}
		maxAge := int(time.Until(expiresAt).Seconds())
		c.SetCookie(tokenCookie, token, maxAge, "/", "", false, true)
		successData(c, LoginResponse{User: u, Token: token, ExpiresAt: expiresAt})
		return nil
	})
}

// UpdateUser patches a user row. Requires a token authorizing the caller for
// the target user (self-service or admin).
func (h *Handlers) UpdateUser(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req UpdateUserRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		err = h.userSvc.Update(c.Request.Context(), token, services.UserUpdate{
			UID:       req.UID,
			Avatar:    req.Avatar,
			Account:   req.Account,
			Password:  req.Password,
			Authority: req.Authority,
		})
		if err != nil {
			return err
		}
		success(c)
		return nil
	})
}

// QueryUser returns a user row by id. Public; the password hash never
// serializes.
func (h *Handlers) QueryUser(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		var req UserIDRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		u, err := h.userSvc.Get(c.Request.Context(), req.UID)
		if err != nil {
			return err
		}
		successData(c, u)
		return nil
	})
}

// DeleteUser removes a user row. Requires a token authorizing the caller for
// the target user (self-service or admin).
func (h *Handlers) DeleteUser(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req UserIDRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if err := h.userSvc.Delete(c.Request.Context(), token, req.UID); err != nil {
			return err
		}
		success(c)
		return nil
	})
}
