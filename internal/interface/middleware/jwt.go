package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/response"
)

const CtxAdminKey = "admin"

// AdminAuth requires an "Authorization: Bearer <token>" header carrying an
// admin token signed by jwt. A nil or secretless manager rejects every
// request with 503.
func AdminAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwt == nil || len(jwt.Secret) == 0 {
			response.Error[any](c, http.StatusServiceUnavailable, "admin access is not configured", nil)
			c.Abort()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		if claims.Role != helpers.RoleAdmin {
			response.Error[any](c, http.StatusForbidden, "admin role required", nil)
			c.Abort()
			return
		}
		c.Set(CtxAdminKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
