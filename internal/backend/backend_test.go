package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/localnerve/chapterviewer/internal/types"
)

func assertJSONEqual(t *testing.T, got, want json.RawMessage) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if err := json.Unmarshal(want, &w); err != nil {
		t.Fatalf("invalid JSON %q: %v", want, err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Fatalf("JSON mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	doc, err := m.Load(ctx, types.KindCompleted)
	if err != nil || doc != nil {
		t.Fatalf("expected empty load, got %q, %v", doc, err)
	}

	want := json.RawMessage(`{"book1/C1/S1/a.mp3":{"completed_at":"2026-01-02T03:04:05Z","name":"a.mp3"}}`)
	if err := m.Save(ctx, types.KindCompleted, want); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	want[0] = ' ' // the backend keeps its own copy
	got, err := m.Load(ctx, types.KindCompleted)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	assertJSONEqual(t, got, json.RawMessage(`{"book1/C1/S1/a.mp3":{"completed_at":"2026-01-02T03:04:05Z","name":"a.mp3"}}`))
}

// fakeProxy mimics the proxy endpoint over a Memory backend.
func fakeProxy(t *testing.T, store *Memory, failSaves bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req ProxyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad proxy request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		kind, err := types.ParseKind(req.Type)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ProxyResponse{Error: err.Error()})
			return
		}
		switch req.Action {
		case "save":
			if failSaves {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(ProxyResponse{Error: "token not configured"})
				return
			}
			_ = store.Save(r.Context(), kind, req.Data)
			_ = json.NewEncoder(w).Encode(ProxyResponse{Success: true, Action: "updated"})
		case "load":
			doc, _ := store.Load(r.Context(), kind)
			if doc == nil {
				doc = json.RawMessage(`{}`)
			}
			_ = json.NewEncoder(w).Encode(ProxyResponse{Success: true, Data: doc})
		}
	}))
}

func TestProxyClientRoundTrip(t *testing.T) {
	server := fakeProxy(t, NewMemory(), false)
	defer server.Close()

	ctx := context.Background()
	client := NewProxyClient(server.URL, nil)

	doc, err := client.Load(ctx, types.KindComments)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	assertJSONEqual(t, doc, json.RawMessage(`{}`))

	want := json.RawMessage(`{"book1/C1/a.mp3":[{"comment":"too fast","timestamp":"2026-01-01T00:00:00Z","fileName":"a.mp3"}]}`)
	if err := client.Save(ctx, types.KindComments, want); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	got, err := client.Load(ctx, types.KindComments)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	assertJSONEqual(t, got, want)
}

func TestProxyClientSurfacesFailures(t *testing.T) {
	server := fakeProxy(t, NewMemory(), true)
	defer server.Close()

	err := NewProxyClient(server.URL, nil).Save(context.Background(), types.KindDeleted, json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "token not configured") {
		t.Fatalf("expected proxy error message, got %v", err)
	}
}

// fakeGitHub keeps issues in memory and serves the subset of the REST API the store uses.
type fakeGitHub struct {
	mu     sync.Mutex
	issues []map[string]any
	t      *testing.T
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if got := r.Header.Get("Authorization"); got != "token secret" {
		f.t.Errorf("unexpected authorization header %q", got)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/book/issues":
		lbl := r.URL.Query().Get("labels")
		out := []map[string]any{}
		for _, is := range f.issues {
			if is["label"] == lbl {
				out = append(out, is)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && r.URL.Path == "/repos/owner/book/issues":
		var body struct {
			Title  string   `json:"title"`
			Body   string   `json:"body"`
			Labels []string `json:"labels"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.issues = append(f.issues, map[string]any{
			"number": len(f.issues) + 1,
			"body":   body.Body,
			"label":  body.Labels[0],
		})
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/repos/owner/book/issues/"):
		raw, _ := io.ReadAll(r.Body)
		var body struct {
			Body string `json:"body"`
		}
		_ = json.Unmarshal(raw, &body)
		num := strings.TrimPrefix(r.URL.Path, "/repos/owner/book/issues/")
		for _, is := range f.issues {
			if num == jsonNumber(is["number"]) {
				is["body"] = body.Body
			}
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/book":
		_, _ = w.Write([]byte(`{"full_name":"owner/book"}`))
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func jsonNumber(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestGitHubIssuesCreatesThenUpdates(t *testing.T) {
	fake := &fakeGitHub{t: t}
	server := httptest.NewServer(fake)
	defer server.Close()

	ctx := context.Background()
	store := NewGitHubIssues(server.URL, "owner/book", "secret", nil)

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping returned error: %v", err)
	}

	doc, err := store.Load(ctx, types.KindPropertyAssignments)
	if err != nil || doc != nil {
		t.Fatalf("expected empty load, got %q, %v", doc, err)
	}

	first := json.RawMessage(`{"C1-S1-narrador":"a.mp3"}`)
	if err := store.Save(ctx, types.KindPropertyAssignments, first); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	second := json.RawMessage(`{"C1-S1-narrador":"b.mp3"}`)
	if err := store.Save(ctx, types.KindPropertyAssignments, second); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	if len(fake.issues) != 1 {
		t.Fatalf("expected a single issue, got %d", len(fake.issues))
	}
	if fake.issues[0]["label"] != "data-property-assignments" {
		t.Fatalf("unexpected label %v", fake.issues[0]["label"])
	}

	got, err := store.Load(ctx, types.KindPropertyAssignments)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	assertJSONEqual(t, got, second)
}
