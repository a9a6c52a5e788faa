package services

import (
	"context"
	"testing"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/repo"
)

func newProblemService(t *testing.T) *ProblemService {
	t.Helper()
	return &ProblemService{
		DB:     newSvcDB(t, &domain.Problem{}),
		Tokens: newTokenManager(t),
	}
}

func sampleInput() ProblemInput {
	return ProblemInput{
		Title:       "A + B",
		Description: "sum two integers",
		JudgeNum:    10,
		TimeLimit:   1.0,
		MemoryLimit: 256,
	}
}

func TestProblemCreate_OwnerComesFromCredential(t *testing.T) {
	svc := newProblemService(t)
	token := issueToken(t, svc.Tokens, 7, auth.User)

	p, err := svc.Create(context.Background(), token, sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 || p.UserID != 7 {
		t.Fatalf("expected owner 7 with generated id, got %+v", p)
	}
}

func TestProblemCreate_TouristFloor_InvalidCredential(t *testing.T) {
	svc := newProblemService(t)
	token := issueToken(t, svc.Tokens, 7, auth.Tourist)

	if _, err := svc.Create(context.Background(), token, sampleInput()); kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestProblemCreate_GarbageToken_InvalidCredential(t *testing.T) {
	svc := newProblemService(t)
	if _, err := svc.Create(context.Background(), "garbage", sampleInput()); kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestProblemCreate_EmptyTitle_ValidationFailed(t *testing.T) {
	svc := newProblemService(t)
	token := issueToken(t, svc.Tokens, 7, auth.User)

	in := sampleInput()
	in.Title = "   "
	if _, err := svc.Create(context.Background(), token, in); kindOf(t, err) != KindValidationFailed {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestProblemUpdate_OwnerPatches(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	title := "A + B (revised)"
	mem := 512
	if err := svc.Update(context.Background(), owner, ProblemUpdate{ID: p.ID, Title: &title, MemoryLimit: &mem}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != title || got.MemoryLimit != 512 {
		t.Fatalf("patch not applied: %+v", got)
	}
	// Untouched fields stay.
	if got.JudgeNum != 10 || got.TimeLimit != 1.0 {
		t.Fatalf("unrelated fields changed: %+v", got)
	}
}

func TestProblemUpdate_StrangerWithoutAdmin_InvalidCredential(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	stranger := issueToken(t, svc.Tokens, 8, auth.User)
	title := "hijacked"
	err := svc.Update(context.Background(), stranger, ProblemUpdate{ID: p.ID, Title: &title})
	if kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestProblemUpdate_AdminPatchesAnyProblem(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	admin := issueToken(t, svc.Tokens, 999, auth.Admin)
	title := "moderated"
	if err := svc.Update(context.Background(), admin, ProblemUpdate{ID: p.ID, Title: &title}); err != nil {
		t.Fatalf("Update as admin: %v", err)
	}
}

func TestProblemUpdate_Missing_NotFound(t *testing.T) {
	svc := newProblemService(t)
	token := issueToken(t, svc.Tokens, 7, auth.User)
	title := "x"
	if err := svc.Update(context.Background(), token, ProblemUpdate{ID: 404, Title: &title}); kindOf(t, err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProblemGet_PublicAndMissing(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	// No credential needed for reads.
	got, err := svc.Get(context.Background(), p.ID)
	if err != nil || got.Title != "A + B" {
		t.Fatalf("Get: %+v, %v", got, err)
	}

	if _, err := svc.Get(context.Background(), 404); kindOf(t, err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProblemDelete_OwnerRemoves(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetProblem(context.Background(), svc.DB, p.ID); err == nil {
		t.Fatalf("expected row gone")
	}
}

func TestProblemDelete_StrangerWithoutAdmin_InvalidCredential(t *testing.T) {
	svc := newProblemService(t)
	owner := issueToken(t, svc.Tokens, 7, auth.User)
	p, _ := svc.Create(context.Background(), owner, sampleInput())

	stranger := issueToken(t, svc.Tokens, 8, auth.User)
	if err := svc.Delete(context.Background(), stranger, p.ID); kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}
