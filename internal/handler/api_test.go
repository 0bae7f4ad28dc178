package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/peer-rental/internal/handler"
    "github.com/iliyamo/peer-rental/internal/model"
    "github.com/iliyamo/peer-rental/internal/queue"
    "github.com/iliyamo/peer-rental/internal/repository/memory"
    "github.com/iliyamo/peer-rental/internal/router"
    "github.com/iliyamo/peer-rental/internal/service"
    "github.com/iliyamo/peer-rental/internal/utils"
    "github.com/iliyamo/peer-rental/internal/validation"
)

const secret = "handler-test-secret"

type nopPublisher struct{}

func (nopPublisher) PublishRentalConfirmed(context.Context, queue.RentalConfirmedEvent) error { return nil }

type api struct {
    t     *testing.T
    e     *echo.Echo
    store service.Store
    cat   uint64
}

func newAPI(t *testing.T, checks map[string]handler.Pinger) *api {
    t.Helper()
    store := service.NewMemoryStore(memory.New())
    convs := service.NewConversationService(store)
    accounts := service.NewAccountService(store, service.AuthSettings{
        Secret: secret, AccessTTL: time.Minute, RefreshTTLDays: 1, BcryptCost: 4,
    })

    e := echo.New()
    e.Validator = validation.New()
    router.Register(e, router.Handlers{
        Health:  &handler.HealthHandler{Checks: checks},
        Auth:    handler.NewAuthHandler(accounts, nil),
        Items:   handler.NewItemHandler(service.NewCatalogService(store), nil),
        Chats:   handler.NewChatHandler(convs, service.NewMessageService(store, convs), nil),
        Rentals: handler.NewRentalHandler(service.NewRentalService(store, nopPublisher{}, nil), nil),
        Reviews: handler.NewReviewHandler(service.NewReviewService(store), nil),
    }, router.Options{JWTSecret: secret})

    c := &model.Category{Name: "Outdoor"}
    require.NoError(t, store.Categories.Create(context.Background(), nil, c))
    return &api{t: t, e: e, store: store, cat: c.ID}
}

// user creates a user directly in the store and returns an access token.
func (a *api) user(email, role string) (uint64, string) {
    a.t.Helper()
    u := &model.User{Email: email, FullName: email, Role: role}
    require.NoError(a.t, a.store.Users.Create(context.Background(), nil, u))
    tok, err := utils.NewAccessToken(secret, u.ID, role, time.Minute)
    require.NoError(a.t, err)
    return u.ID, tok.Token
}

func (a *api) do(method, target, token string, body any) *httptest.ResponseRecorder {
    a.t.Helper()
    var buf bytes.Buffer
    if body != nil {
        require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
    }
    req := httptest.NewRequest(method, target, &buf)
    if body != nil {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
    return v
}

type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

type idBody struct {
    ID     uint64 `json:"id"`
    Status string `json:"status"`
}

func (a *api) createItem(token string, lat, lon float64) uint64 {
    a.t.Helper()
    rec := a.do(http.MethodPost, "/v1/items", token, map[string]any{
        "category_id":          a.cat,
        "title":                "Canoe",
        "address":              "Harbour 1",
        "latitude":             lat,
        "longitude":            lon,
        "price_per_hour_cents": 10,
        "price_per_day_cents":  100,
        "images":               []string{"https://img.example.com/canoe.jpg"},
    })
    require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
    return decode[idBody](a.t, rec).ID
}

func TestHealth(t *testing.T) {
    a := newAPI(t, map[string]handler.Pinger{
        "db": handler.PingFunc(func(context.Context) error { return nil }),
    })
    rec := a.do(http.MethodGet, "/healthz", "", nil)
    assert.Equal(t, http.StatusOK, rec.Code)

    a = newAPI(t, map[string]handler.Pinger{
        "redis": handler.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
    })
    rec = a.do(http.MethodGet, "/healthz", "", nil)
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestAuthFlow(t *testing.T) {
    a := newAPI(t, nil)

    rec := a.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
        "email": "ana@example.com", "password": "correct-horse", "full_name": "Ana",
    })
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    type session struct {
        Access  struct{ Token string } `json:"access"`
        Refresh struct{ Token string } `json:"refresh"`
    }
    sess := decode[session](t, rec)

    rec = a.do(http.MethodGet, "/v1/me", sess.Access.Token, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "ana@example.com")

    rec = a.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
        "email": "ana@example.com", "password": "correct-horse", "full_name": "Ana",
    })
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = a.do(http.MethodPost, "/v1/auth/register", "", map[string]any{"email": "bad", "password": "x"})
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "validation", decode[errorBody](t, rec).Error)

    rec = a.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "ana@example.com", "password": "wrong-pass"})
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = a.do(http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": sess.Refresh.Token})
    require.Equal(t, http.StatusOK, rec.Code)
    rotated := decode[session](t, rec)

    rec = a.do(http.MethodPost, "/v1/auth/logout", "", map[string]any{"refresh_token": rotated.Refresh.Token})
    assert.Equal(t, http.StatusNoContent, rec.Code)
    rec = a.do(http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": rotated.Refresh.Token})
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/me", "", nil).Code)
}

func TestPublicProfile(t *testing.T) {
    a := newAPI(t, nil)
    id, _ := a.user("shown@example.com", model.RoleUser)

    rec := a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d", id), "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode[map[string]any](t, rec)
    assert.EqualValues(t, id, body["id"])
    assert.Equal(t, "shown@example.com", body["full_name"])
    assert.NotContains(t, body, "email")

    rec = a.do(http.MethodGet, "/v1/users/4242", "", nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "not_found", decode[errorBody](t, rec).Error)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/users/abc", "", nil).Code)
}

func TestItemSearch(t *testing.T) {
    a := newAPI(t, nil)
    _, owner := a.user("owner@example.com", model.RoleUser)
    near := a.createItem(owner, 0, 0)
    a.createItem(owner, 1, 1)

    rec := a.do(http.MethodGet, "/v1/items/search?lat=0&lon=0&radius=50", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode[struct{ Items []idBody }](t, rec)
    require.Len(t, body.Items, 1)
    assert.Equal(t, near, body.Items[0].ID)

    rec = a.do(http.MethodGet, "/v1/items/search?lat=0.5&lon=0.5&radius=100", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[struct{ Items []idBody }](t, rec).Items, 2)

    for _, q := range []string{
        "lat=91&lon=0", "lat=0&lon=181", "lat=0&lon=0&radius=200", "lat=0&lon=0&radius=0.05",
        "lon=0", "lat=x&lon=0", "lat=NaN&lon=0", "lat=0&lon=NaN", "lat=Inf&lon=0",
    } {
        rec = a.do(http.MethodGet, "/v1/items/search?"+q, "", nil)
        assert.Equal(t, http.StatusBadRequest, rec.Code, q)
    }
    rec = a.do(http.MethodGet, "/v1/items/search?lat=0&lon=0&radius=NaN", "", nil)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, model.ErrRadiusRange.Error(), decode[errorBody](t, rec).Message)

    rec = a.do(http.MethodGet, fmt.Sprintf("/v1/items/%d", near), "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "canoe.jpg")

    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/items/999", "", nil).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/items/abc", "", nil).Code)
}

func TestItemAvailabilityAndCategories(t *testing.T) {
    a := newAPI(t, nil)
    ownerID, owner := a.user("owner@example.com", model.RoleUser)
    _, other := a.user("other@example.com", model.RoleUser)
    _, admin := a.user("admin@example.com", model.RoleAdmin)
    id := a.createItem(owner, 10, 10)

    path := fmt.Sprintf("/v1/items/%d/availability", id)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodPatch, path, other, map[string]any{"is_available": false}).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPatch, path, owner, map[string]any{}).Code)
    assert.Equal(t, http.StatusOK, a.do(http.MethodPatch, path, owner, map[string]any{"is_available": false}).Code)

    rec := a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/items", ownerID), "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"is_available":false`)

    assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/categories", owner, map[string]any{"name": "Boats"}).Code)
    assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/categories", admin, map[string]any{"name": "Boats"}).Code)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/v1/categories", admin, map[string]any{"name": "Boats"}).Code)

    rec = a.do(http.MethodGet, "/v1/categories", "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[struct{ Items []idBody }](t, rec).Items, 2)
}

func TestChatFlow(t *testing.T) {
    a := newAPI(t, nil)
    _, owner := a.user("owner@example.com", model.RoleUser)
    _, renter := a.user("renter@example.com", model.RoleUser)
    _, stranger := a.user("stranger@example.com", model.RoleUser)
    item := a.createItem(owner, 0, 0)

    rec := a.do(http.MethodPost, "/v1/chats/start", renter, map[string]any{"item_id": item})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    conv := decode[idBody](t, rec).ID

    rec = a.do(http.MethodPost, "/v1/chats/start", renter, map[string]any{"item_id": item})
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, conv, decode[idBody](t, rec).ID)

    msgs := fmt.Sprintf("/v1/chats/%d/messages", conv)
    assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, msgs, renter, map[string]any{"message_text": "hello"}).Code)
    assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, msgs, owner, map[string]any{"message_text": "hi there"}).Code)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, msgs, stranger, map[string]any{"message_text": "spam"}).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, msgs, renter, map[string]any{"message_text": ""}).Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/v1/chats/999/messages", renter, map[string]any{"message_text": "x"}).Code)

    rec = a.do(http.MethodGet, msgs+"?limit=10", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    type msg struct {
        Text string `json:"message_text"`
    }
    list := decode[struct{ Items []msg }](t, rec).Items
    require.Len(t, list, 2)
    assert.Equal(t, "hello", list[0].Text)
    assert.Equal(t, "hi there", list[1].Text)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, msgs+"?limit=500", owner, nil).Code)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, msgs, stranger, nil).Code)

    rec = a.do(http.MethodPost, fmt.Sprintf("/v1/chats/%d/read", conv), owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"marked":1}`, rec.Body.String())

    rec = a.do(http.MethodGet, "/v1/chats", renter, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[struct{ Items []idBody }](t, rec).Items, 1)

    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/v1/chats/%d/participation", conv), renter, nil).Code)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, msgs, renter, nil).Code)
}

func TestRentalAndReviewFlow(t *testing.T) {
    a := newAPI(t, nil)
    ownerID, owner := a.user("owner@example.com", model.RoleUser)
    _, tenant := a.user("tenant@example.com", model.RoleUser)
    _, stranger := a.user("stranger@example.com", model.RoleUser)
    item := a.createItem(owner, 0, 0)

    start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
    body := map[string]any{"item_id": item, "start_date": start, "end_date": start.Add(5 * time.Hour)}

    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/v1/rentals", owner, body).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/v1/rentals", tenant,
        map[string]any{"item_id": item, "start_date": start, "end_date": start}).Code)

    rec := a.do(http.MethodPost, "/v1/rentals", tenant, body)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    type rental struct {
        ID              uint64 `json:"id"`
        Status          string `json:"status"`
        TotalPriceCents int64  `json:"total_price_cents"`
    }
    r := decode[rental](t, rec)
    assert.EqualValues(t, 50, r.TotalPriceCents)
    assert.Equal(t, model.RentalPending, r.Status)

    rentalPath := fmt.Sprintf("/v1/rentals/%d", r.ID)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, rentalPath, stranger, nil).Code)
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, rentalPath+"/confirm", stranger, nil).Code)

    rec = a.do(http.MethodPost, rentalPath+"/confirm", tenant, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, model.RentalPending, decode[rental](t, rec).Status)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, rentalPath+"/confirm", tenant, nil).Code)

    rec = a.do(http.MethodPost, rentalPath+"/confirm", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, model.RentalConfirmed, decode[rental](t, rec).Status)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, rentalPath+"/confirm", owner, nil).Code)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, rentalPath+"/cancel", owner, nil).Code)

    rec = a.do(http.MethodGet, "/v1/my-rentals", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[struct{ Items []rental }](t, rec).Items, 1)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/my-rentals?scope=past", owner, nil).Code)

    review := map[string]any{"rental_id": r.ID, "reviewed_user_id": ownerID, "rating": 4, "comment": "smooth"}
    assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/reviews", stranger, review).Code)
    assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/reviews", tenant, review).Code)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/v1/reviews", tenant, review).Code)

    rec = a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/rating", ownerID), "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, fmt.Sprintf(`{"user_id":%d,"count":1,"average":4}`, ownerID), rec.Body.String())

    rec = a.do(http.MethodGet, fmt.Sprintf("/v1/users/%d/reviews", ownerID), "", nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "smooth")
}
