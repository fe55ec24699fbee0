package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/infrastructure/cache"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 128
)

// replayRecorder captures the body written by the handler chain
type replayRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *replayRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *replayRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST or PUT that was already
// answered for the same Idempotency-Key. Only 2xx responses are stored; a
// failed or panicking call releases its key so the till can retry. Store
// outages let the request through.
func Idempotency(store cache.ReplayStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = cache.DefaultReplayTTL
	}
	return func(c *gin.Context) {
		method := c.Request.Method
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || (method != http.MethodPost && method != http.MethodPut) {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest,
				"Idempotency-Key must be at most 128 characters",
				GetRequestID(c),
			))
			return
		}

		log := logger.GetGinLogger(c)
		ctx := c.Request.Context()
		scoped := method + " " + c.Request.URL.Path + " " + key

		reply, err := store.Lookup(ctx, scoped)
		if err != nil {
			log.Warn("Idempotency lookup failed, serving request", zap.Error(err))
			c.Next()
			return
		}
		if reply != nil {
			c.Header(ReplayedHeader, "true")
			c.Data(reply.Status, reply.ContentType, reply.Body)
			c.Abort()
			return
		}

		claimed, err := store.Claim(ctx, scoped, ttl)
		if err != nil {
			log.Warn("Idempotency claim failed, serving request", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeRequestInProgress,
				"A request with this Idempotency-Key is still being processed",
				GetRequestID(c),
			))
			return
		}

		// The claim is released unless a reply was stored, including when a
		// handler panics on its way to the recovery middleware.
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		rec := &replayRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		err = store.Complete(ctx, scoped, cache.Reply{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}, ttl)
		if err != nil {
			log.Warn("Failed to store idempotent reply", zap.Error(err))
			return
		}
		completed = true
	}
}
