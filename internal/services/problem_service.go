// Package services – ProblemService
//
// This file implements the ProblemService, which manages the problem bank.
// Any authenticated user may upload a problem; the uploader is recorded as
// the owner. Updates and deletion require ownership or the Admin floor.
// Reading a problem is public.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/repo"
)

// ProblemService implements the use-cases around the problem bank.
type ProblemService struct {
	// DB is the database handle used for all problem operations.
	DB *gorm.DB
	// Tokens issues and verifies the signed credentials used for access control.
	Tokens *auth.TokenManager
}

// ProblemInput is the payload for uploading a new problem.
type ProblemInput struct {
	Title       string
	Description string
	JudgeNum    int
	TimeLimit   float64
	MemoryLimit int
}

// ProblemUpdate is a partial update of a problem row. Nil fields are left as-is.
type ProblemUpdate struct {
	ID          int64
	Title       *string
	Description *string
	JudgeNum    *int
	TimeLimit   *float64
	MemoryLimit *int
}

// Create uploads a new problem. The credential must decode to at least the
// User floor; the decoded subject becomes the problem's owner, regardless of
// anything in the request body.
func (s *ProblemService) Create(ctx context.Context, token string, in ProblemInput) (*domain.Problem, error) {
	cred, err := s.Tokens.Verify(token)
	if err != nil || !cred.Level.AtLeast(auth.User) {
		return nil, E(KindInvalidCredential, "not allowed to upload a problem")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, E(KindValidationFailed, "empty title")
	}

	p := &domain.Problem{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		JudgeNum:    in.JudgeNum,
		TimeLimit:   in.TimeLimit,
		MemoryLimit: in.MemoryLimit,
		UserID:      cred.SubjectID,
	}
	if err := repo.CreateProblem(ctx, s.DB, p); err != nil {
		return nil, E(KindPersistenceFailure, "create problem: %v", err)
	}
	return p, nil
}

// Update applies a partial update to a problem. The caller must own the
// problem or hold the Admin floor; ownership is read from the stored row,
// never from the request.
func (s *ProblemService) Update(ctx context.Context, token string, upd ProblemUpdate) error {
	if upd.ID == 0 {
		return E(KindValidationFailed, "id is required")
	}

	p, err := repo.GetProblem(ctx, s.DB, upd.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "problem: %d", upd.ID)
		}
		return E(KindPersistenceFailure, "load problem %d: %v", upd.ID, err)
	}
	if !s.Tokens.Authorize(token, p.UserID, auth.Admin) {
		return E(KindInvalidCredential, "not allowed to update problem owned by user %d", p.UserID)
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return E(KindValidationFailed, "title must not be empty")
		}
		p.Title = title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.JudgeNum != nil {
		p.JudgeNum = *upd.JudgeNum
	}
	if upd.TimeLimit != nil {
		p.TimeLimit = *upd.TimeLimit
	}
	if upd.MemoryLimit != nil {
		p.MemoryLimit = *upd.MemoryLimit
	}

	if err := repo.SaveProblem(ctx, s.DB, p); err != nil {
		return E(KindPersistenceFailure, "save problem %d: %v", p.ID, err)
	}
	return nil
}

// Get returns the problem with the given id. No credential is needed.
func (s *ProblemService) Get(ctx context.Context, id int64) (*domain.Problem, error) {
	if id == 0 {
		return nil, E(KindValidationFailed, "id is required")
	}
	p, err := repo.GetProblem(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, E(KindNotFound, "problem: %d", id)
		}
		return nil, E(KindPersistenceFailure, "load problem %d: %v", id, err)
	}
	return p, nil
}

// Delete removes a problem. The caller must own it or hold the Admin floor.
func (s *ProblemService) Delete(ctx context.Context, token string, id int64) error {
	if id == 0 {
		return E(KindValidationFailed, "id is required")
	}

	p, err := repo.GetProblem(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "problem: %d", id)
		}
		return E(KindPersistenceFailure, "load problem %d: %v", id, err)
	}
	if !s.Tokens.Authorize(token, p.UserID, auth.Admin) {
		return E(KindInvalidCredential, "not allowed to delete problem owned by user %d", p.UserID)
	}

	if err := repo.DeleteProblem(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "problem: %d", id)
		}
		return E(KindPersistenceFailure, "delete problem %d: %v", id, err)
	}
	return nil
}
