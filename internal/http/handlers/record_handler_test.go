package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/http/middleware"
)

func submitRecord(t *testing.T, rg *rig, token string, hdr map[string]string) int64 {
	t.Helper()
	w := rg.postJSON(t, "/record/insert", token, gin.H{
		"uid":      1,
		"pid":      2,
		"language": int16(domain.LangPython3),
		"code":     "print(1)",
	}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("insert record: %d %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	return int64(env.Data.(map[string]any)["rid"].(float64))
}

func TestRecordInsert_PersistsWaiting(t *testing.T) {
	rg := newRig(t)
	uid := rg.register(t, "alice")

	w := rg.postJSON(t, "/record/insert", rg.token(t, uid, auth.User), gin.H{
		"uid":      uid,
		"pid":      2,
		"language": int16(domain.LangC),
		"code":     "int main(){}",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	data := env.Data.(map[string]any)
	if int16(data["status"].(float64)) != int16(domain.StatusWaiting) {
		t.Fatalf("expected waiting status, got %v", data["status"])
	}
}

func TestRecordInsert_RequiresToken(t *testing.T) {
	rg := newRig(t)
	w := rg.postJSON(t, "/record/insert", "", gin.H{"uid": 1, "pid": 2, "language": 30, "code": "x"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRecordInsert_IdempotencyKeyReplays(t *testing.T) {
	rg := newRig(t)
	tok := rg.token(t, 1, auth.User)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "submit-once"}

	first := submitRecord(t, rg, tok, hdr)

	w := rg.postJSON(t, "/record/insert", tok, gin.H{
		"uid":      1,
		"pid":      2,
		"language": int16(domain.LangPython3),
		"code":     "print(1)",
	}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("replay: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	if rid := int64(env.Data.(map[string]any)["rid"].(float64)); rid != first {
		t.Fatalf("replay must return record %d, got %d", first, rid)
	}
}

func TestRecordInsert_BadIdempotencyKeyRejected(t *testing.T) {
	rg := newRig(t)
	tok := rg.token(t, 1, auth.User)

	w := rg.postJSON(t, "/record/insert", tok, gin.H{
		"uid": 1, "pid": 2, "language": 30, "code": "x",
	}, map[string]string{middleware.HeaderIdempotencyKey: "bad key with spaces"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from key validation, got %d", w.Code)
	}
}

func TestRecordUpdate_JudgerOnly(t *testing.T) {
	rg := newRig(t)
	user := rg.token(t, 1, auth.User)
	rid := submitRecord(t, rg, user, nil)

	// The submitting user cannot report a verdict.
	w := rg.postJSON(t, "/record/update", user, gin.H{"rid": rid, "status": int16(domain.StatusAc)}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", w.Code, w.Body.String())
	}

	worker := rg.token(t, 50, auth.Judger)
	w = rg.postJSON(t, "/record/update", worker, gin.H{"rid": rid, "status": int16(domain.StatusAc), "run_time": 42}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	wq := rg.postJSON(t, "/record/query", "", gin.H{"rid": rid}, nil)
	env := decodeEnvelope(t, wq.Body.Bytes())
	recs := env.Data.([]any)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0].(map[string]any)
	if int16(rec["status"].(float64)) != int16(domain.StatusAc) || int(rec["run_time"].(float64)) != 42 {
		t.Fatalf("verdict not applied: %v", rec)
	}
}

func TestRecordUpdate_MissingRecordIsNotFound(t *testing.T) {
	rg := newRig(t)
	worker := rg.token(t, 50, auth.Judger)

	w := rg.postJSON(t, "/record/update", worker, gin.H{"rid": 404, "status": int16(domain.StatusAc)}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRecordQuery_FilterByUser(t *testing.T) {
	rg := newRig(t)
	tok := rg.token(t, 1, auth.User)
	submitRecord(t, rg, tok, nil)
	submitRecord(t, rg, tok, nil)

	w := rg.postJSON(t, "/record/query", "", gin.H{"uid": 1}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	if got := len(env.Data.([]any)); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}

	w = rg.postJSON(t, "/record/query", "", gin.H{"uid": 999}, nil)
	env = decodeEnvelope(t, w.Body.Bytes())
	if env.Data != nil && len(env.Data.([]any)) != 0 {
		t.Fatalf("expected no records, got %v", env.Data)
	}
}

func TestRecordList_PaginationAndETag(t *testing.T) {
	rg := newRig(t)
	tok := rg.token(t, 1, auth.User)
	for i := 0; i < 3; i++ {
		submitRecord(t, rg, tok, nil)
	}

	w := httptest.NewRecorder()
	rg.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/record/list?page=1&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	env := decodeEnvelope(t, w.Body.Bytes())
	data := env.Data.(map[string]any)
	page := data["pagination"].(map[string]any)
	if int(page["total"].(float64)) != 3 || page["has_next"] != true {
		t.Fatalf("unexpected pagination: %v", page)
	}
	if got := len(data["records"].([]any)); got != 2 {
		t.Fatalf("expected 2 records on page, got %d", got)
	}

	// Replay with If-None-Match short-circuits to 304.
	req := httptest.NewRequest(http.MethodGet, "/record/list?page=1&page_size=2", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	rg.r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}
}

func TestRecordList_VerdictInvalidatesETag(t *testing.T) {
	rg := newRig(t)
	rid := submitRecord(t, rg, rg.token(t, 1, auth.User), nil)

	w := httptest.NewRecorder()
	rg.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/record/list", nil))
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	// The row count stays the same; only the verdict changes.
	time.Sleep(20 * time.Millisecond)
	worker := rg.token(t, 50, auth.Judger)
	wu := rg.postJSON(t, "/record/update", worker, gin.H{"rid": rid, "status": int16(domain.StatusAc), "run_time": 7}, nil)
	if wu.Code != http.StatusOK {
		t.Fatalf("report verdict: %d %s", wu.Code, wu.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/record/list", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	rg.r.ServeHTTP(w2, req)
	if w2.Code == http.StatusNotModified {
		t.Fatalf("stale 304 served after a verdict was reported")
	}
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w2.Code, w2.Body.String())
	}
	if fresh := w2.Header().Get("ETag"); fresh == etag {
		t.Fatalf("ETag did not change after a verdict: %s", fresh)
	}

	env := decodeEnvelope(t, w2.Body.Bytes())
	recs := env.Data.(map[string]any)["records"].([]any)
	if int16(recs[0].(map[string]any)["status"].(float64)) != int16(domain.StatusAc) {
		t.Fatalf("listing does not show the fresh verdict: %v", recs[0])
	}
}
