package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/infrastructure/cache"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingStore simulates a Redis outage
type failingStore struct{}

func (failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) Complete(context.Context, string, cache.Reply, time.Duration) error {
	return errors.New("connection refused")
}
func (failingStore) Lookup(context.Context, string) (*cache.Reply, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Release(context.Context, string) error { return nil }
func (failingStore) Close() error                          { return nil }

func newIdempotentEngine(store cache.ReplayStore, calls *int) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), Idempotency(store, time.Hour))
	engine.POST("/checkout", func(c *gin.Context) {
		*calls++
		if c.Query("fail") == "1" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"call": *calls}})
	})
	engine.GET("/checkout", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"call": *calls})
	})
	return engine
}

func TestIdempotency(t *testing.T) {
	key := map[string]string{IdempotencyKeyHeader: "till-1-0001"}

	t.Run("retry replays the first response", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		first := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		require.Equal(t, http.StatusCreated, first.Code)
		assert.Empty(t, first.Header().Get(ReplayedHeader))

		second := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
		assert.Equal(t, 1, calls)
	})

	t.Run("requests without a key always run", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout"})
		testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout"})
		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, store.Size())
	})

	t.Run("GET ignores the key", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		testutil.Perform(t, engine, testutil.Request{Path: "/checkout", Headers: key})
		testutil.Perform(t, engine, testutil.Request{Path: "/checkout", Headers: key})
		assert.Equal(t, 2, calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout?fail=1", Headers: key})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, 0, store.Size())

		w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout?fail=1", Headers: key})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, w.Header().Get(ReplayedHeader))
		assert.Equal(t, 2, calls)
	})

	t.Run("panicking handler releases the key", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := gin.New()
		engine.Use(logger.Recovery(zap.NewNop()), RequestID(), Idempotency(store, time.Hour))
		engine.POST("/checkout", func(c *gin.Context) {
			calls++
			if calls == 1 {
				panic("printer driver crashed")
			}
			c.JSON(http.StatusCreated, gin.H{"success": true})
		})

		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, 0, store.Size())

		w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		assert.Equal(t, http.StatusCreated, w.Code, "a retry after a panic must not see REQUEST_IN_PROGRESS")
		assert.Equal(t, 2, calls)
	})

	t.Run("key held by an unfinished request", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		ok, err := store.Claim(context.Background(), "POST /checkout till-1-0001", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		testutil.AssertErrorResponse(t, w, http.StatusConflict, "REQUEST_IN_PROGRESS")
		assert.Equal(t, 0, calls)
	})

	t.Run("overlong key is rejected", func(t *testing.T) {
		store := cache.NewInMemoryReplayStore()
		defer store.Close()
		calls := 0
		engine := newIdempotentEngine(store, &calls)

		w := testutil.Perform(t, engine, testutil.Request{
			Method:  http.MethodPost,
			Path:    "/checkout",
			Headers: map[string]string{IdempotencyKeyHeader: strings.Repeat("k", 129)},
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
		assert.Equal(t, 0, calls)
	})

	t.Run("store outage serves the request", func(t *testing.T) {
		calls := 0
		engine := newIdempotentEngine(failingStore{}, &calls)

		testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/checkout", Headers: key})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 2, calls)
	})
}
