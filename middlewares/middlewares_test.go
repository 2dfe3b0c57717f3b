package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLoaderResultsFillsMissing(t *testing.T) {
	rows := []models.MenuItem{{ID: 1, Name: "Burger"}, {ID: 3, Name: "Fries"}}
	results := generateLoaderResults(rows, []int{3, 2, 1})

	require.Len(t, results, 3)
	assert.Equal(t, "Fries", results[0].Data.Name)
	assert.Equal(t, 2, results[1].Data.ID)
	assert.Equal(t, "", results[1].Data.Name)
	assert.Equal(t, "Burger", results[2].Data.Name)
}

func TestGenerateLoaderArrayResultsGroups(t *testing.T) {
	rows := []models.OrderItem{
		{ID: 1, OrderId: 10, Quantity: 1},
		{ID: 2, OrderId: 11, Quantity: 2},
		{ID: 3, OrderId: 10, Quantity: 3},
	}
	results := generateLoaderArrayResults(rows, []int{10, 11, 12})

	require.Len(t, results, 3)
	require.Len(t, results[0].Data, 2)
	assert.Equal(t, 1, results[0].Data[0].ID)
	assert.Equal(t, 3, results[0].Data[1].ID)
	require.Len(t, results[1].Data, 1)
	assert.Nil(t, results[2].Data)
}

func TestHandleErrorRepeats(t *testing.T) {
	results := handleError[*models.User](3, utils.NewNotFound("User", nil))
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Error)
	}
}

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		staff, _ := utils.GetIsStaffFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "staff": staff})
	})
	r.GET("/staff", RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func signToken(t *testing.T, claims utils.JwtCustomClaim) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionMiddlewareBearer(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	r := sessionRouter()

	token := signToken(t, utils.JwtCustomClaim{ID: 7, Username: "alice", Role: utils.RoleStaff})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"staff":true}`, w.Body.String())
}

func TestSessionMiddlewareRejectsBadToken(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	r := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuestIsNotStaff(t *testing.T) {
	r := sessionRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/staff", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.JSONEq(t, `{"id":0,"staff":false}`, w.Body.String())
}

func TestCustomerTokenIsNotStaff(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	r := sessionRouter()

	token := signToken(t, utils.JwtCustomClaim{ID: 9, Username: "bob", Role: "customer"})
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
