package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var (
		nf *utils.NotFoundError
		ve *utils.ValidationError
		is *utils.InsufficientStockError
	)
	switch {
	case errors.As(err, &nf), errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &is):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		// storage details stay in the log
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var is *utils.InsufficientStockError
	if errors.As(err, &is) {
		body["ingredient_id"] = is.IngredientId
		body["available"] = is.Available
		body["required"] = is.Required
	}
	c.JSON(status, body)
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, utils.NewValidation(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// optionalIntQuery returns nil when the query parameter is absent.
func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, utils.NewValidation(name, "must be an integer"))
		return nil, false
	}
	return &v, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, utils.NewValidation("body", err.Error()))
		return false
	}
	return true
}
