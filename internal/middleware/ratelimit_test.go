package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/rstolbov/dictation-backend/internal/config"
)

func limiterCtx(userID interface{}) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.7", buildRateKey(cfg, limiterCtx(nil)))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:88", buildRateKey(cfg, limiterCtx(uint64(88))))
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, limiterCtx(nil)))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t,
		"rl:ip:10.0.0.7:user:88:route:POST /v1/auth/login",
		buildRateKey(cfg, limiterCtx(uint64(88))))
}

func TestAsInt64(t *testing.T) {
	assert.EqualValues(t, 7, asInt64(int64(7)))
	assert.EqualValues(t, 7, asInt64(7))
	assert.EqualValues(t, 7, asInt64(7.9))
	assert.EqualValues(t, 7, asInt64("7"))
	assert.EqualValues(t, 0, asInt64("seven"))
	assert.EqualValues(t, 0, asInt64(nil))
}

func TestNewTokenBucketPassThroughWhenDisabled(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(limiterCtx(nil)))
	assert.True(t, called)
}
