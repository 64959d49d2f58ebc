package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/logging"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func newIdempotentRouter(cache ResponseCache, status int) (*gin.Engine, *int) {
	calls := 0
	r := gin.New()
	r.POST("/things", Idempotency(cache, logging.Discard()), func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": strconv.Itoa(calls)})
	})
	return r, &calls
}

func post(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	t.Parallel()
	router, calls := newIdempotentRouter(&memoryCache{}, http.StatusCreated)

	first := post(router, "abc")
	second := post(router, "abc")

	if *calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", *calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("expected replay of %d %s, got %d %s", first.Code, first.Body.String(), second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay header")
	}
}

func TestIdempotency_DistinctKeysAndNoKey(t *testing.T) {
	t.Parallel()
	router, calls := newIdempotentRouter(&memoryCache{}, http.StatusOK)

	post(router, "a")
	post(router, "b")
	post(router, "")
	post(router, "")

	if *calls != 4 {
		t.Fatalf("expected 4 handler calls, got %d", *calls)
	}
}

func TestIdempotency_ServerErrorsNotCached(t *testing.T) {
	t.Parallel()
	router, calls := newIdempotentRouter(&memoryCache{}, http.StatusInternalServerError)

	post(router, "abc")
	post(router, "abc")

	if *calls != 2 {
		t.Fatalf("expected retry after server error, got %d calls", *calls)
	}
}

func TestIdempotency_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()
	router, calls := newIdempotentRouter(&memoryCache{err: errors.New("redis down")}, http.StatusOK)

	if w := post(router, "abc"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *calls != 1 {
		t.Fatalf("expected handler to run, got %d calls", *calls)
	}
}
