package middleware

import (
	"strings"

	"borlette/domain"
	"borlette/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Context keys set by AuthMiddleware.
const (
	ContextPrincipal = "principal"
	ContextUserID    = "user_id"
	ContextRole      = "role"
	ContextToken     = "token"
)

// TokenVerifier decodes bearer tokens into principals
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// AuthMiddleware verifies the bearer token and stores the decoded principal
// on the echo context. Failures never reach the handler.
func AuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return &domain.AuthError{Message: "missing authorization header"}
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
				return &domain.AuthError{Message: "invalid authorization format"}
			}

			tokenString := tokenParts[1]

			principal, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Warn("Rejected bearer token", "error", err, "path", c.Path())
				return err
			}

			c.Set(ContextPrincipal, principal)
			c.Set(ContextUserID, principal.ID)
			c.Set(ContextRole, principal.Role)
			c.Set(ContextToken, tokenString)

			return next(c)
		}
	}
}

// RequireRoles admits only principals whose role is one of roles. It must
// run after AuthMiddleware.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return &domain.AuthError{Message: "user not authenticated"}
			}

			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}

			return &domain.PermissionError{Message: p.Role.String() + " access not allowed"}
		}
	}
}

// PrincipalFrom returns the principal stored by AuthMiddleware.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(ContextPrincipal).(domain.Principal)
	if !ok || !p.Role.Valid() {
		return domain.Principal{}, false
	}
	return p, true
}

// Supervisors are every role allowed to review tickets.
var Supervisors = []domain.Role{
	domain.RoleSupervisor1,
	domain.RoleSupervisor2,
	domain.RoleSubsystem,
	domain.RoleMaster,
}
