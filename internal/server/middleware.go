package server

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kanmind/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

const (
	actorKey    = "kanmind.actor"
	tokenCookie = "jwt_token"
)

func actorFrom(ctx *gin.Context) string {
	return ctx.GetString(actorKey)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.Info("http request",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.Request.URL.Path),
			slog.String("route", ctx.FullPath()),
			slog.Int("status", ctx.Writer.Status()),
			slog.String("client_ip", ctx.ClientIP()),
			slog.String("actor", actorFrom(ctx)),
			slog.String("latency", time.Since(start).String()),
		)
	}
}

func (api *API) observe() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		api.metrics.ObserveRequest(ctx.Request.Method, ctx.FullPath(), status, time.Since(start))
		api.metrics.ObserveDenial(status)
	}
}

// bearerToken reads "Authorization: Bearer <t>" or "Token <t>", falling back
// to the jwt_token cookie set by browser clients.
func bearerToken(ctx *gin.Context) string {
	if header := ctx.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
		if !ok {
			return ""
		}
		if strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := ctx.Cookie(tokenCookie); err == nil {
		return cookie
	}
	return ""
}

// authenticate resolves the actor from the request token. The user must
// still exist, so tokens of deleted accounts stop working immediately.
func (api *API) authenticate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			api.writeError(ctx, errors.ErrUnauthorized)
			return
		}
		userID, err := api.tokens.Verify(token)
		if err != nil {
			api.writeError(ctx, err)
			return
		}
		user, err := api.svc.CurrentUser(ctx.Request.Context(), userID)
		if err != nil {
			api.writeError(ctx, err)
			return
		}
		ctx.Set(actorKey, user.ID)
		ctx.Next()
	}
}

// rateLimit applies the per-client token bucket. Redis failures let the
// request through.
func (api *API) rateLimit() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if api.limiter == nil {
			ctx.Next()
			return
		}
		allowed, wait, err := api.limiter.Allow(ctx.Request.Context(), ctx.FullPath()+":"+ctx.ClientIP())
		if err != nil {
			api.logger.Warn("rate limiter unavailable", "error", err)
			ctx.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(wait.Seconds()))
			api.metrics.ObserveRateLimited(ctx.FullPath())
			ctx.Header("Retry-After", strconv.Itoa(seconds))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf("Request was throttled. Expected available in %d seconds.", seconds),
			})
			return
		}
		ctx.Next()
	}
}

// gzipBody closes both the gzip stream and the original request body.
type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (b *gzipBody) Close() error {
	gzErr := b.Reader.Close()
	if err := b.body.Close(); err != nil {
		return err
	}
	return gzErr
}

func decompressRequest() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Content-Encoding")), "gzip") {
			ctx.Next()
			return
		}
		gr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": errors.ErrInvalidGzipRequest.Error()})
			return
		}
		ctx.Request.Body = &gzipBody{Reader: gr, body: ctx.Request.Body}
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

// minCompressSize keeps small JSON bodies uncompressed.
const minCompressSize = 1024

// compressWriter buffers the body until it is known whether it is large
// enough to compress.
type compressWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
	gz  *gzip.Writer
}

func (w *compressWriter) Write(data []byte) (int, error) {
	if w.gz != nil {
		if _, err := w.gz.Write(data); err != nil {
			return 0, errors.ErrGzipCompressionFailed
		}
		return len(data), nil
	}
	w.buf.Write(data)
	if w.buf.Len() >= minCompressSize && w.compressible() {
		if err := w.startGzip(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *compressWriter) compressible() bool {
	h := w.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	switch w.Status() {
	case http.StatusNoContent, http.StatusNotModified, http.StatusPartialContent:
		return false
	}
	ct := strings.ToLower(h.Get("Content-Type"))
	return strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/plain")
}

func (w *compressWriter) startGzip() error {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	w.gz = gzip.NewWriter(w.ResponseWriter)
	if _, err := w.gz.Write(w.buf.Bytes()); err != nil {
		return errors.ErrGzipCompressionFailed
	}
	w.buf.Reset()
	return nil
}

// finish flushes whatever is still buffered once the handler returned.
func (w *compressWriter) finish() error {
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return errors.ErrGzipCompressionFailed
		}
		return nil
	}
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func (w *compressWriter) Flush() {
	if w.gz != nil {
		_ = w.gz.Flush()
	} else if w.buf.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.buf.Bytes())
		w.buf.Reset()
	}
	w.ResponseWriter.Flush()
}

func compressResponse() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}
		ctx.Writer.Header().Add("Vary", "Accept-Encoding")

		cw := &compressWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = cw
		ctx.Next()

		if err := cw.finish(); err != nil {
			_ = ctx.Error(err)
		}
	}
}
