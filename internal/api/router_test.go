package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LJTian/NewsDigest/internal/digest"
	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/LJTian/NewsDigest/internal/ranking"
	"github.com/LJTian/NewsDigest/internal/storage"
	"github.com/gin-gonic/gin"
)

type stubPreviewer struct {
	items []ranking.Scored
	d     *digest.Digest
	err   error
}

func (p *stubPreviewer) Preview(context.Context) ([]ranking.Scored, *digest.Digest, error) {
	return p.items, p.d, p.err
}

type envelope struct {
	Code string         `json:"code"`
	Data map[string]any `json:"data"`
}

func newTestEngine(s *Server, mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	s.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestEngine(NewServer(&stubPreviewer{}, storage.NewState(storage.NewMemoryStore(), time.UTC)))
	w := do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetState(t *testing.T) {
	st := storage.NewState(storage.NewMemoryStore(), time.UTC)
	ctx := context.Background()
	if err := st.MarkSentToday(ctx, "2024-03-10"); err != nil {
		t.Fatalf("MarkSentToday: %v", err)
	}
	if err := st.SaveSeen(ctx, map[string]struct{}{"a": {}, "b": {}}); err != nil {
		t.Fatalf("SaveSeen: %v", err)
	}

	s := NewServer(&stubPreviewer{}, st)
	s.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	w := do(t, newTestEngine(s), httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data["lastSent"] != "2024-03-10" || resp.Data["sentToday"] != true {
		t.Fatalf("unexpected state: %+v", resp.Data)
	}
	if resp.Data["seenCount"] != float64(2) {
		t.Fatalf("seenCount = %v", resp.Data["seenCount"])
	}
}

func TestPreview(t *testing.T) {
	p := &stubPreviewer{
		items: []ranking.Scored{{Item: processor.Item{Title: "T", URL: "https://x"}, Score: 2}},
		d:     &digest.Digest{Subject: "subj", Body: "body", Count: 1},
	}
	w := do(t, newTestEngine(NewServer(p, storage.NewState(storage.NewMemoryStore(), time.UTC))),
		httptest.NewRequest(http.MethodGet, "/api/v1/preview", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data["subject"] != "subj" {
		t.Fatalf("subject = %v", resp.Data["subject"])
	}
	items, ok := resp.Data["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", resp.Data["items"])
	}
	first := items[0].(map[string]any)
	if first["title"] != "T" || first["score"] != float64(2) {
		t.Fatalf("unexpected item: %v", first)
	}
}

func TestPreviewError(t *testing.T) {
	p := &stubPreviewer{err: errors.New("boom")}
	w := do(t, newTestEngine(NewServer(p, storage.NewState(storage.NewMemoryStore(), time.UTC))),
		httptest.NewRequest(http.MethodGet, "/api/v1/preview", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s := NewServer(&stubPreviewer{}, storage.NewState(storage.NewMemoryStore(), time.UTC))
	r := newTestEngine(s, BasicAuth("user", "pass"))

	// /health 免认证
	if w := do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	if w := do(t, r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.SetBasicAuth("user", "pass")
	if w := do(t, r, req); w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", w.Code)
	}
}
