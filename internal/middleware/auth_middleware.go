package middleware

import (
	"strings"

	"assistant-chat/internal/domain"
	"assistant-chat/internal/services"
	"assistant-chat/internal/transport/httpdto"
	"assistant-chat/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const userContextKey = "current_user"

// AuthMiddleware resolves the bearer token into a user and stores it on the
// gin context. Missing or unusable tokens abort with 401 and a code naming
// the exact failure (expired, malformed, bad signature, unauthenticated).
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			err := apperrors.ErrUnauthenticated
			c.JSON(apperrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), apperrors.Code(err)))
			c.Abort()
			return
		}

		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(apperrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), apperrors.Code(err)))
			c.Abort()
			return
		}

		c.Set(userContextKey, u)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := value.(*domain.User)
	return u, ok
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
