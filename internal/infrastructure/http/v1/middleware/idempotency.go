package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"challanbook/internal/core/apperror"
	appctx "challanbook/internal/core/context"
	"challanbook/internal/infrastructure/storage/postgres"
	"challanbook/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// IdempotencyStore remembers the outcome of a request by its key.
type IdempotencyStore interface {
	Acquire(ctx context.Context, key, scope, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	Release(ctx context.Context, key string) error
}

// Idempotency middleware protects number-allocating requests against client
// retries: a repeated key gets the first response back instead of a second number.
//
// Responses below 500 are stored, and so is PDF_RENDER_FAILED because the
// challan behind it is committed. Other server errors release the key.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || store == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			_ = c.Error(apperror.NewValidation("cannot read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.Acquire(ctx, key, appctx.GetTerminal(ctx), operation, requestHash)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// Render the error now so the stored body matches what the client saw.
		if len(c.Errors) > 0 && !c.Writer.Written() {
			writeError(c, c.Errors.Last().Err)
		}

		// The request may already be cancelled; the key must still be settled.
		settleCtx := context.WithoutCancel(ctx)
		status := c.Writer.Status()
		if status < http.StatusInternalServerError || lastErrorHasCode(c, apperror.CodeRenderFailed) {
			err = store.Complete(settleCtx, key, status, c.Writer.Header().Get("Content-Type"), rec.body.Bytes())
		} else {
			err = store.Release(settleCtx, key)
		}
		if err != nil {
			logger.Error(ctx, "settle idempotency key", "key", key, "error", err)
		}
	}
}

func lastErrorHasCode(c *gin.Context, code string) bool {
	if len(c.Errors) == 0 {
		return false
	}
	return apperror.HasCode(c.Errors.Last().Err, code)
}

// recordingWriter copies the response body aside while writing it through.
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
