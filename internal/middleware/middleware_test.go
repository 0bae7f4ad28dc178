package middleware

import (
    "net/http"
    "net/http/httptest"
    "strconv"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/peer-rental/internal/config"
    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        id, ok := UserID(c)
        if !ok {
            return c.NoContent(http.StatusTeapot)
        }
        return c.String(http.StatusOK, strconv.FormatUint(id, 10)+":"+Role(c))
    }, JWTAuth(secret))

    tok, err := utils.NewAccessToken(secret, 42, model.RoleUser, time.Minute)
    require.NoError(t, err)

    rec := serve(e, http.MethodGet, "/me", tok.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "42:"+model.RoleUser, rec.Body.String())

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "garbage").Code)

    other, err := utils.NewAccessToken("other-secret", 42, model.RoleUser, time.Minute)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", other.Token).Code)
}

func TestOptionalJWT_Guest(t *testing.T) {
    e := echo.New()
    e.GET("/who", func(c echo.Context) error { return c.String(http.StatusOK, subject(c)) }, OptionalJWT(secret))

    assert.Equal(t, "anon", serve(e, http.MethodGet, "/who", "").Body.String())
    assert.Equal(t, "anon", serve(e, http.MethodGet, "/who", "bad").Body.String())

    tok, err := utils.NewAccessToken(secret, 7, model.RoleUser, time.Minute)
    require.NoError(t, err)
    assert.Equal(t, "7", serve(e, http.MethodGet, "/who", tok.Token).Body.String())
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    e.POST("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        JWTAuth(secret), RequireRole(model.RoleAdmin))

    user, err := utils.NewAccessToken(secret, 1, model.RoleUser, time.Minute)
    require.NoError(t, err)
    admin, err := utils.NewAccessToken(secret, 2, model.RoleAdmin, time.Minute)
    require.NoError(t, err)

    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/admin", user.Token).Code)
    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/admin", admin.Token).Code)
}

func TestRateLimit_BlocksWhenEmpty(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
        TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl",
    }
    e := echo.New()
    e.Use(RateLimit(cfg, rdb, nil))
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

    first := serve(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)

    blocked := serve(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
    assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestLimiter_Refills(t *testing.T) {
    _, rdb := newRedis(t)
    now := time.Unix(1_700_000_000, 0)
    l := NewLimiter(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}, rdb)
    l.now = func() time.Time { return now }
    ctx := t.Context()

    d, err := l.Allow(ctx, "k")
    require.NoError(t, err)
    assert.True(t, d.Allowed)

    d, err = l.Allow(ctx, "k")
    require.NoError(t, err)
    assert.False(t, d.Allowed)
    assert.Equal(t, time.Second, d.RetryAfter)

    now = now.Add(time.Second)
    d, err = l.Allow(ctx, "k")
    require.NoError(t, err)
    assert.True(t, d.Allowed)
}

func TestRateLimit_PassThroughWithoutRedis(t *testing.T) {
    e := echo.New()
    e.Use(RateLimit(config.RateLimitConfig{Enabled: true}, nil, nil))
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
    rec := serve(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestResponseCache(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled: true, TTL: time.Minute, KeyStrategy: "route_query", Prefix: "cache",
        MaxBodyBytes: 1 << 20, Methods: config.ParseMethods([]string{"GET"}),
    }
    calls := 0
    e := echo.New()
    e.GET("/items/:id", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "calls": calls})
    }, ResponseCache(cfg, rdb, nil))
    e.GET("/missing", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
    }, ResponseCache(cfg, rdb, nil))

    miss := serve(e, http.MethodGet, "/items/1", "")
    assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))
    hit := serve(e, http.MethodGet, "/items/1", "")
    assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
    assert.Equal(t, miss.Body.String(), hit.Body.String())
    assert.Equal(t, echo.MIMEApplicationJSON, hit.Header().Get(echo.HeaderContentType))
    assert.Equal(t, 1, calls)

    other := serve(e, http.MethodGet, "/items/2", "")
    assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)

    serve(e, http.MethodGet, "/missing", "")
    serve(e, http.MethodGet, "/missing", "")
    assert.Equal(t, 4, calls)
}

func TestResponseCache_SkipsOversizedBodies(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 4, MethodList: []string{"GET"}}
    e := echo.New()
    e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, "0123456789") },
        ResponseCache(cfg, rdb, nil))

    serve(e, http.MethodGet, "/big", "")
    rec := serve(e, http.MethodGet, "/big", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, "0123456789", rec.Body.String())
}
