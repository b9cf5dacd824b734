package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, CurrentSubject(c)) })
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	signer, err := jwt.NewSigner("secret")
	require.NoError(t, err)
	r := newRouter(Auth(signer))

	require.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)

	editor, err := signer.Sign("someone", "editor", time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, do(r, "Bearer "+editor).Code)

	admin, err := signer.Sign("root", RoleAdmin, time.Hour)
	require.NoError(t, err)
	w := do(r, "Bearer "+admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "root", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	counter := &fakeCounter{hits: map[string]int64{}}
	r := newRouter(RateLimit(counter, "subscribe", 2, time.Minute, zap.NewNop()))

	require.Equal(t, http.StatusOK, do(r, "").Code)
	require.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	counter.err = errors.New("redis down")
	require.Equal(t, http.StatusOK, do(r, "").Code)
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := newRouter(Logger(zap.NewNop()))
	w := do(r, "")
	require.NotEmpty(t, w.Header().Get(headerRequestID))
}
