package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(f.svc)
	api := r.Group("/api/v1")
	h.RegisterRoutes(api, func(c *gin.Context) { c.Next() })
	h.RegisterAdminRoutes(api.Group("/admin"))
	return r
}

func call(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHandlerSubscribeAndConfirm(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	w, body := call(r, http.MethodPost, "/api/v1/subscribers", `{"email":"A@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "a@x.com", body["email"])
	id := body["id"].(string)

	sub, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	hash := *sub.CheckoutHash
	path := "/api/v1/subscribers/subscribe/" + id + "/" + hash

	w, body = call(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pending-subscribe", body["state"])

	w, body = call(r, http.MethodPatch, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "active", body["state"])

	w, body = call(r, http.MethodPatch, path, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, msgInvalidUpdate, body["message"])

	w, body = call(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, msgInvalidSubscriber, body["message"])

	w, body = call(r, http.MethodPost, "/api/v1/subscribers", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, msgInvalidSubscriber, body["message"])
}

func TestHandlerRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	w, body := call(r, http.MethodPost, "/api/v1/subscribers", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, msgInvalidSubscriber, body["message"])

	w, _ = call(r, http.MethodPatch, "/api/v1/subscribers/subscribe/1/XYZ", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(r, http.MethodPatch, "/api/v1/subscribers/unsubscribe/missing/"+strings.Repeat("a", 40), "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.rec.OpenErr = context.DeadlineExceeded
	r := newTestRouter(f)

	w, body := call(r, http.MethodPost, "/api/v1/subscribers", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, msgMailFailed, body["message"])
	require.Zero(t, f.store.count())
}

func TestHandlerUnsubscribeRequestAndAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := newTestRouter(f)

	sub, err := f.svc.RequestSubscription(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, sub.ID, *sub.CheckoutHash)
	require.NoError(t, err)

	w, _ := call(r, http.MethodPost, "/api/v1/subscribers/unsubscribe", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w, body := call(r, http.MethodGet, "/api/v1/admin/subscribers?page=1&size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	require.Equal(t, "pending-unsubscribe", data[0].(map[string]interface{})["state"])

	w, body = call(r, http.MethodDelete, "/api/v1/admin/subscribers/"+sub.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "unsubscribed", body["state"])
}
