package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/repo"
)

func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func newTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

// kindOf extracts the error category, failing the test on a nil error.
func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error")
	}
	return AsError(err).Kind
}

func issueToken(t *testing.T, tm *auth.TokenManager, uid int64, level auth.Authority) string {
	t.Helper()
	token, _, err := tm.Issue(uid, level)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return &UserService{
		DB:     newSvcDB(t, &domain.User{}),
		Tokens: newTokenManager(t),
	}
}

func TestRegister_EmptyFields_ValidationFailed(t *testing.T) {
	svc := newUserService(t)
	for _, tc := range [][2]string{{"", "pw"}, {"alice", ""}, {"   ", "pw"}} {
		if _, err := svc.Register(context.Background(), tc[0], tc[1]); kindOf(t, err) != KindValidationFailed {
			t.Fatalf("Register(%q, %q): expected validation failure, got %v", tc[0], tc[1], err)
		}
	}
}

func TestRegister_Success_DefaultsAndHashedPassword(t *testing.T) {
	svc := newUserService(t)

	u, err := svc.Register(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.UID == 0 {
		t.Fatalf("expected generated uid")
	}
	if u.Authority != auth.User {
		t.Fatalf("expected base authority, got %v", u.Authority)
	}
	if u.Avatar == "" {
		t.Fatalf("expected a default avatar")
	}
	if u.Password == "s3cret" {
		t.Fatalf("password stored in the clear")
	}
	if err := auth.VerifyPassword(u.Password, "s3cret"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_DuplicateAccount_Conflict(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice", "pw2"); kindOf(t, err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin_Success_TokenCarriesIdentity(t *testing.T) {
	svc := newUserService(t)
	u, err := svc.Register(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, token, expiresAt, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.UID != u.UID {
		t.Fatalf("expected uid %d, got %d", u.UID, got.UID)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected a future expiry, got %v", expiresAt)
	}

	cred, err := svc.Tokens.Verify(token)
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if cred.SubjectID != u.UID || cred.Level != auth.User {
		t.Fatalf("unexpected credential: %+v", cred)
	}
}

func TestLogin_UnknownAccount_NotFound(t *testing.T) {
	svc := newUserService(t)
	if _, _, _, err := svc.Login(context.Background(), "ghost", "pw"); kindOf(t, err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLogin_BadPassword_WrongPassword(t *testing.T) {
	svc := newUserService(t)
	if _, err := svc.Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "alice", "nope"); kindOf(t, err) != KindWrongPassword {
		t.Fatalf("expected wrong password, got %v", err)
	}
}

func TestUpdate_SelfService_PatchesFields(t *testing.T) {
	svc := newUserService(t)
	u, _ := svc.Register(context.Background(), "alice", "pw")
	token := issueToken(t, svc.Tokens, u.UID, auth.User)

	avatar := "/assets/avatar/alice.png"
	account := "alice2"
	if err := svc.Update(context.Background(), token, UserUpdate{UID: u.UID, Avatar: &avatar, Account: &account}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.Get(context.Background(), u.UID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Avatar != avatar || got.Account != "alice2" {
		t.Fatalf("patch not applied: %+v", got)
	}
}

func TestUpdate_OtherUserWithoutAdmin_InvalidCredential(t *testing.T) {
	svc := newUserService(t)
	alice, _ := svc.Register(context.Background(), "alice", "pw")
	bob, _ := svc.Register(context.Background(), "bob", "pw")

	token := issueToken(t, svc.Tokens, bob.UID, auth.User)
	avatar := "/x.png"
	err := svc.Update(context.Background(), token, UserUpdate{UID: alice.UID, Avatar: &avatar})
	if kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestUpdate_AdminPatchesAnyone(t *testing.T) {
	svc := newUserService(t)
	alice, _ := svc.Register(context.Background(), "alice", "pw")

	token := issueToken(t, svc.Tokens, 999, auth.Admin)
	avatar := "/x.png"
	if err := svc.Update(context.Background(), token, UserUpdate{UID: alice.UID, Avatar: &avatar}); err != nil {
		t.Fatalf("Update as admin: %v", err)
	}
}

func TestUpdate_CannotRaiseAuthorityAboveStored(t *testing.T) {
	svc := newUserService(t)
	alice, _ := svc.Register(context.Background(), "alice", "pw") // stored at User

	token := issueToken(t, svc.Tokens, 999, auth.Admin)
	up := auth.Judger
	err := svc.Update(context.Background(), token, UserUpdate{UID: alice.UID, Authority: &up})
	if kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential raising authority, got %v", err)
	}

	// Lowering is allowed.
	down := auth.Tourist
	if err := svc.Update(context.Background(), token, UserUpdate{UID: alice.UID, Authority: &down}); err != nil {
		t.Fatalf("lowering authority: %v", err)
	}
	got, _ := svc.Get(context.Background(), alice.UID)
	if got.Authority != auth.Tourist {
		t.Fatalf("expected stored authority Tourist, got %v", got.Authority)
	}
}

func TestUpdate_UnknownAuthorityRank_ValidationFailed(t *testing.T) {
	svc := newUserService(t)
	alice, _ := svc.Register(context.Background(), "alice", "pw")
	token := issueToken(t, svc.Tokens, alice.UID, auth.User)

	bogus := auth.Authority(15)
	err := svc.Update(context.Background(), token, UserUpdate{UID: alice.UID, Authority: &bogus})
	if kindOf(t, err) != KindValidationFailed {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestUpdate_MissingUser_NotFound(t *testing.T) {
	svc := newUserService(t)
	token := issueToken(t, svc.Tokens, 42, auth.User)
	avatar := "/x.png"
	err := svc.Update(context.Background(), token, UserUpdate{UID: 42, Avatar: &avatar})
	if kindOf(t, err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGet_Missing_NotFound(t *testing.T) {
	svc := newUserService(t)
	if _, err := svc.Get(context.Background(), 42); kindOf(t, err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 0); kindOf(t, err) != KindValidationFailed {
		t.Fatalf("expected validation failure for zero uid, got %v", err)
	}
}

func TestDelete_SelfService_RemovesAccount(t *testing.T) {
	svc := newUserService(t)
	u, _ := svc.Register(context.Background(), "alice", "pw")
	token := issueToken(t, svc.Tokens, u.UID, auth.User)

	if err := svc.Delete(context.Background(), token, u.UID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetUser(context.Background(), svc.DB, u.UID); err == nil {
		t.Fatalf("expected row gone")
	}
}

func TestDelete_InvalidToken_InvalidCredential(t *testing.T) {
	svc := newUserService(t)
	u, _ := svc.Register(context.Background(), "alice", "pw")

	err := svc.Delete(context.Background(), "garbage", u.UID)
	if kindOf(t, err) != KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}
