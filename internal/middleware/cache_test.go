package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rstolbov/dictation-backend/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`[{"id":1}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, []byte("short"), make([]byte, 8)} {
		_, _, _, ok := decodePayload(bs)
		if len(bs) == 8 {
			// zero status, zero header length, empty body is well-formed
			assert.True(t, ok)
			continue
		}
		assert.False(t, ok)
	}
	// header length pointing past the buffer
	bs := []byte{0, 0, 0, 200, 0, 0, 1, 0, 'x'}
	_, _, _, ok := decodePayload(bs)
	assert.False(t, ok)
}

func newCtx(t *testing.T, method, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/dictations/public")
	return c
}

func TestCacheKeyStrategies(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}

	cfg.KeyStrategy = "route"
	a := cacheKeyFrom(cfg, newCtx(t, http.MethodGet, "/v1/dictations/public?x=1"))
	b := cacheKeyFrom(cfg, newCtx(t, http.MethodGet, "/v1/dictations/public?x=2"))
	assert.Equal(t, a, b, "route strategy ignores the query")

	cfg.KeyStrategy = "route_query"
	a = cacheKeyFrom(cfg, newCtx(t, http.MethodGet, "/v1/dictations/public?x=1"))
	b = cacheKeyFrom(cfg, newCtx(t, http.MethodGet, "/v1/dictations/public?x=2"))
	assert.NotEqual(t, a, b, "route_query strategy keys on the query")

	assert.Regexp(t, `^cache:[0-9a-f]{40}$`, a)
}

func TestNewRedisCachePassThroughWhenDisabled(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/dictations/public", nil), rec)
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
