package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/jwt"
	"github.com/mornview/reviewd/internal/pkg/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
	ContextUserName    = "user_name"
	ContextUserEmail   = "user_email"
)

// SubjectResolver re-confirms that a verified token subject still exists.
type SubjectResolver interface {
	ResolveUser(ctx context.Context, userID string) (*model.User, error)
}

// JWTAuth authenticates a request from its Authorization header. Claims are
// taken from the token; the subject is then checked against the credential
// store so tokens for deleted accounts stop working before expiry.
func JWTAuth(secret []byte, users SubjectResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "not authenticated")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			response.Error(c, http.StatusUnauthorized, "unauthorized", msg)
			c.Abort()
			return
		}
		user, err := users.ResolveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if appErr.IsNotFound(err) {
				response.Error(c, http.StatusNotFound, "not_found", "user not found")
			} else {
				response.Error(c, http.StatusInternalServerError, "internal", "internal error")
			}
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserRoleKey, string(user.Role))
		c.Set(ContextUserName, user.Name)
		c.Set(ContextUserEmail, user.Email)
		c.Next()
	}
}
