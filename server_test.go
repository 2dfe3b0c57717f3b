package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/mmdatafocus/kitchen_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", utils.NewNotFound("Order", 1), http.StatusNotFound},
		{"sentinel", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"validation", utils.NewValidation("quantity", "must be at least 1"), http.StatusBadRequest},
		{"insufficient", &utils.InsufficientStockError{IngredientId: 2, Name: "Bun", Available: 1, Required: 2}, http.StatusConflict},
		{"wrapped not found", fmt.Errorf("load: %w", utils.NewNotFound("MenuItem", 3)), http.StatusNotFound},
		{"persistence", &utils.PersistenceError{Op: "save", Err: errors.New("conn reset")}, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestRespondErrorInsufficientStockBody(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, &utils.InsufficientStockError{IngredientId: 4, Name: "Patty", Available: 1, Required: 3})

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(4), body["ingredient_id"])
	assert.Equal(t, float64(1), body["available"])
	assert.Equal(t, float64(3), body["required"])
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, &utils.PersistenceError{Op: "save", Err: errors.New("dial tcp 10.0.0.1:3306")})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	assert.Len(t, c.Errors, 1)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim("  "))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, splitAndTrim(" https://a.test, ,https://b.test "))
}

func TestRouterWithoutDatabase(t *testing.T) {
	if config.GetDB() != nil {
		t.Skip("database already connected")
	}
	r := newRouter(logrus.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/menu-items", nil)
	req.Header.Set("x-correlation-id", "cid-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "cid-123", w.Header().Get("x-correlation-id"))
}

func TestIdParam(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/things/12":  http.StatusOK,
		"/things/0":   http.StatusBadRequest,
		"/things/-3":  http.StatusBadRequest,
		"/things/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(func() *redis.Client { return nil }, 1, 0)
	r := gin.New()
	r.Use(rl.RateLimitMiddleware)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

type fakeMediaStore struct {
	puts    []string
	deletes []string
}

func (s *fakeMediaStore) Put(_ context.Context, key string, _ []byte, _ string) error {
	s.puts = append(s.puts, key)
	return nil
}

func (s *fakeMediaStore) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *fakeMediaStore) URL(key string) string {
	return "https://media.test/" + key
}

func multipartBody(t *testing.T, field string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadMenuItemImageRejectsBadInput(t *testing.T) {
	store := &fakeMediaStore{}
	r := gin.New()
	r.POST("/menu-items/:id/image", uploadMenuItemImageHandler(store))

	cases := []struct {
		name  string
		path  string
		field string
		data  []byte
	}{
		{"bad id", "/menu-items/abc/image", "file", []byte("\x89PNG\r\n\x1a\n")},
		{"missing file", "/menu-items/1/image", "", nil},
		{"not an image", "/menu-items/1/image", "file", []byte("just some text")},
		{"too large", "/menu-items/1/image", "file", bytes.Repeat([]byte{0xff}, int(maxUploadSizeBytes)+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tc.field, "photo.png", tc.data)
			req := httptest.NewRequest(http.MethodPost, tc.path, body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, store.puts)
}

func TestRequestIDFromHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Request.Header.Set("X-Request-Id", "req-9")
	assert.Equal(t, "req-9", requestIDFromHeaders(c))

	c.Request.Header.Set("X-Correlation-Id", "cid-1")
	assert.Equal(t, "cid-1", requestIDFromHeaders(c))
}

func TestRestrictLineInput(t *testing.T) {
	lineInput := func() *workflow.CommitOrderLineInput {
		price := decimal.RequireFromString("0.01")
		return &workflow.CommitOrderLineInput{MenuItemId: 1, Quantity: 2, Price: &price, IsFree: true}
	}

	guest := lineInput()
	restrictLineInput(context.Background(), guest)
	assert.Nil(t, guest.Price)
	assert.False(t, guest.IsFree)

	customer := lineInput()
	restrictLineInput(utils.SetIsStaffInContext(context.Background(), false), customer)
	assert.Nil(t, customer.Price)
	assert.False(t, customer.IsFree)
	assert.Equal(t, 2, customer.Quantity)

	staff := lineInput()
	restrictLineInput(utils.SetIsStaffInContext(context.Background(), true), staff)
	require.NotNil(t, staff.Price)
	assert.Equal(t, "0.01", staff.Price.String())
	assert.True(t, staff.IsFree)
}
