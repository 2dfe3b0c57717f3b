package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// Session is what the identity service stores under "Token:<token>".
type Session struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// SessionMiddleware resolves the caller from either a bearer JWT or an opaque
// session token. Requests without credentials continue as guests.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, token, err := resolveSession(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if session == nil {
			c.Next()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, session.ID)
		ctx = utils.SetUsernameInContext(ctx, session.Username)
		ctx = utils.SetIsStaffInContext(ctx, session.IsStaff)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveSession(r *http.Request) (*Session, string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		claims, err := utils.ClaimsFromToken(token)
		if err != nil {
			return nil, "", err
		}
		return &Session{
			ID:       claims.ID,
			Username: claims.Username,
			IsStaff:  claims.Role == utils.RoleStaff,
		}, token, nil
	}

	token := r.Header.Get("token")
	if token == "" {
		return nil, "", nil
	}
	var session Session
	exists, err := config.GetRedisObject("Token:"+token, &session)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", utils.NewNotFound("Session", nil)
	}
	return &session, token, nil
}

// RequireStaff rejects callers without the staff flag. Catalog writes sit behind it.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStaff, ok := utils.GetIsStaffFromContext(c.Request.Context()); !ok || !isStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "staff only"})
			c.Abort()
			return
		}
		c.Next()
	}
}
