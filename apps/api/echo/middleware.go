package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core/user"
)

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin)
}

// staffMiddleware admits teachers and admins.
func staffMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin, user.RoleTeacher)
}

func roleMiddleware(allowed ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			switch claims.Role {
			case user.RoleAdmin, user.RoleTeacher, user.RoleStudent:
				for _, role := range allowed {
					if claims.Role == role {
						return next(ctx)
					}
				}
				return errHttpForbidden
			default:
				return errHttpForbidden
			}
		}
	}
}
