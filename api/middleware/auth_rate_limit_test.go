package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
)

type counterStore struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func newCounterStore() *counterStore {
	return &counterStore{hits: map[string]int64{}}
}

func (s *counterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.hits[key]++
	return s.hits[key], nil
}

func attempt(h http.Handler, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "1.2.3.4:5678"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func passThrough(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthRateLimitLimits(t *testing.T) {
	tests := []struct {
		name       string
		policy     AuthRateLimitPolicy
		body       string
		header     map[string]string
		allowed    int
		counterKey string
	}{
		{
			name:       "username is normalized",
			policy:     NewAuthRateLimitPolicy("login", time.Minute, 0, 2),
			body:       `{"username":" Blocked ","password":"secret"}`,
			allowed:    2,
			counterKey: "rl:user:login:" + hashValue("blocked"),
		},
		{
			name:       "forwarded ip counts",
			policy:     NewAuthRateLimitPolicy("register", time.Minute, 1, 0),
			body:       `{"username":"foo","password":"secret"}`,
			header:     map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"},
			allowed:    1,
			counterKey: "rl:ip:register:5.6.7.8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newCounterStore()
			h := AuthRateLimit(tt.policy, store, nil)(http.HandlerFunc(passThrough))

			for i := 0; i < tt.allowed; i++ {
				require.Equal(t, http.StatusOK, attempt(h, "/", tt.body, tt.header).Code, "attempt %d", i)
			}
			rec := attempt(h, "/", tt.body, tt.header)
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))

			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
			assert.EqualValues(t, tt.allowed+1, store.hits[tt.counterKey])
		})
	}
}

func TestAuthRateLimitRestoresBody(t *testing.T) {
	var seen string
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 5, 5), newCounterStore(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			seen = string(raw)
		}))

	attempt(h, "/login", `{"username":"tester","password":"secret"}`, nil)
	assert.Contains(t, seen, `"username":"tester"`)
}

func TestAuthRateLimitStoreFailure(t *testing.T) {
	store := newCounterStore()
	store.err = errors.New("redis down")
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), store, nil)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("handler should not run") }))

	assert.Equal(t, http.StatusServiceUnavailable, attempt(h, "/login", `{}`, nil).Code)
}

func TestAuthRateLimitDisabledPolicy(t *testing.T) {
	store := newCounterStore()
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), store, nil)(http.HandlerFunc(passThrough))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, attempt(h, "/login", "", nil).Code)
	}
	assert.Empty(t, store.hits)
}
