package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestJwtGenerateRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "round-trip")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	token, err := JwtGenerate(42, "chef", RoleStaff)
	require.NoError(t, err)

	claims, err := ClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.ID)
	assert.Equal(t, "chef", claims.Username)
	assert.Equal(t, RoleStaff, claims.Role)

	t.Setenv("API_SECRET", "other")
	_, err = ClaimsFromToken(token)
	assert.Error(t, err)
}

func TestJwtGenerateBadLifespan(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "soon")
	_, err := JwtGenerate(1, "chef", RoleStaff)
	assert.Error(t, err)
}

func TestWrapDBError(t *testing.T) {
	assert.NoError(t, WrapDBError("op", "Order", nil))

	err := WrapDBError("fetch", "Order", gorm.ErrRecordNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Order", nf.Resource)
	assert.ErrorIs(t, err, ErrorRecordNotFound)

	err = WrapDBError("create", "Recipe", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Recipe", ve.Field)

	stock := &InsufficientStockError{IngredientId: 1, Name: "Bun", Available: 0, Required: 1}
	var is *InsufficientStockError
	require.ErrorAs(t, WrapDBError("commit", "Ingredient", fmt.Errorf("tx: %w", stock)), &is)
	assert.Same(t, stock, is)

	cause := errors.New("connection refused")
	err = WrapDBError("save", "Order", cause)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)
	assert.ErrorIs(t, err, cause)
}

func TestStorageURLs(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "storage.googleapis.com")
	t.Setenv("GCS_BUCKET", "kitchen-media")

	url := BuildObjectAccessURL("menu_items/1_2.png")
	assert.Equal(t, "https://storage.googleapis.com/kitchen-media/menu_items/1_2.png", url)
	assert.Equal(t, "menu_items/1_2.png", ExtractObjectKeyFromURL(url))
	assert.Equal(t, "", ExtractObjectKeyFromURL(""))
}
