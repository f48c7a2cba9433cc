package amocrm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/natserract/amocrm/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSessionCookie = "amo-session"

// fakeAPI is an httptest server speaking just enough of the amoCRM v2 API.
// Every path except auth requires the cookie handed out by auth.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		t:        t,
		hits:     make(map[string]int),
		handlers: make(map[string]http.HandlerFunc),
	}
	api.handle(authPath, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: testSessionCookie, Path: "/"})
		writeJSON(w, http.StatusOK, `{"response":{"auth":true,"server_time":1000}}`)
	})

	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.hits[r.URL.Path]++
	handler, ok := a.handlers[r.URL.Path]
	a.mu.Unlock()

	if r.URL.Path != authPath {
		c, err := r.Cookie("session_id")
		if err != nil || c.Value != testSessionCookie {
			writeJSON(w, http.StatusUnauthorized, `{"response":{"error":"not authorized","error_code":"110"}}`)
			return
		}
	}

	if !ok {
		writeJSON(w, http.StatusNotFound, `{"message":"no handler for `+r.URL.Path+`"}`)
		return
	}
	handler(w, r)
}

func (a *fakeAPI) handle(path string, handler http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[path] = handler
}

// respond registers a handler that always answers with status and body.
func (a *fakeAPI) respond(path string, status int, body string) {
	a.handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (a *fakeAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[path]
}

// total counts requests other than authentication.
func (a *fakeAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for path, hits := range a.hits {
		if path != authPath {
			n += hits
		}
	}
	return n
}

func (a *fakeAPI) config() *config.Config {
	return &config.Config{
		Subdomain: "acme",
		Login:     "ops@acme.test",
		APIKey:    "api-key",
		BaseURL:   a.server.URL,
	}
}

func (a *fakeAPI) session(t *testing.T, opts ...func(*config.Config)) *Session {
	t.Helper()

	cfg := a.config()
	for _, opt := range opts {
		opt(cfg)
	}

	s, err := NewSessionWithLogger(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// decodeRequest decodes a JSON request body inside a handler.
func decodeRequest(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}
