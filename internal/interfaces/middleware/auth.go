package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// Authenticator validates bearer tokens. *services.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

func abort(c *gin.Context, status int, errText, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		constants.ResponseError: errText,
		constants.FieldMessage:  message,
		constants.FieldCode:     code,
		constants.FieldData:     nil,
	})
}

// bearerToken extracts the token from the Authorization header. When
// allowQuery is set an access_token query parameter is accepted as well.
func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		if !allowQuery {
			return "", false
		}
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth is a middleware that validates the bearer token and its session
// and stores the resolved principal in the context.
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return requireAuth(authn, false)
}

// RequireAuthSSE is RequireAuth for event streams. EventSource clients cannot
// set headers, so the token may also come from the access_token parameter.
func RequireAuthSSE(authn Authenticator) gin.HandlerFunc {
	return requireAuth(authn, true)
}

func requireAuth(authn Authenticator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, allowQuery)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized", "No authorization token provided", "UNAUTHORIZED")
			return
		}

		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if appErrors.GetHTTPStatus(err) >= http.StatusInternalServerError {
				abort(c, http.StatusInternalServerError, "Internal Server Error", "Failed to validate session", appErrors.GetErrorCode(err))
				return
			}
			abort(c, http.StatusUnauthorized, "Unauthorized", err.Error(), "UNAUTHORIZED")
			return
		}

		c.Set(constants.ContextKeyPrincipal, principal)
		c.Set(constants.ContextKeyToken, token)
		c.Next()
	}
}

// RequireRole admits only principals whose resolved role is one of roles.
// A principal without a role is never admitted.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", "User not authenticated", "UNAUTHORIZED")
			return
		}
		if !p.HasRole(roles...) {
			abort(c, http.StatusForbidden, "Forbidden", "You do not have access to this resource", "FORBIDDEN")
			return
		}
		c.Next()
	}
}

// RequireAdmin admits admins only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireStaff admits admins and employees.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleEmployee)
}

// GetPrincipal returns the authenticated principal, or nil.
func GetPrincipal(c *gin.Context) *models.Principal {
	v, ok := c.Get(constants.ContextKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}
