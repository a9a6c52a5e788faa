package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openjudge/go-judge-backend/internal/domain"
)

func TestClient_Disabled(t *testing.T) {
	c := NewClient("", time.Second)
	if c.Enabled() {
		t.Error("client with empty URL should be disabled")
	}
	if err := c.Submit(context.Background(), Job{RID: 1}); err != nil {
		t.Errorf("disabled client should drop jobs, got %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Error("nil client should be disabled")
	}
}

func TestClient_Submit(t *testing.T) {
	var got Job
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	job := Job{PID: 3, RID: 8, Code: "print(1)", Language: domain.LangPython3}
	if err := c.Submit(context.Background(), job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.PID != 3 || got.RID != 8 || got.Language != domain.LangPython3 {
		t.Errorf("relayed job = %+v", got)
	}
	if got.Opt == nil {
		t.Error("opt should be encoded as an empty array, not null")
	}
}

func TestClient_SubmitErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.Submit(context.Background(), Job{RID: 1}); err == nil {
		t.Error("non-2xx response should be an error")
	}

	down := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if err := down.Submit(context.Background(), Job{RID: 1}); err == nil {
		t.Error("unreachable judger should be an error")
	}
}
