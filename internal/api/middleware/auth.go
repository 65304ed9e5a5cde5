package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// PrincipalKey is the echo.Context key holding the authenticated domain.Principal.
const PrincipalKey = "principal"

// Auth validates the HS256 bearer token and injects the principal into context.
// Claims: sub (user id), role, fieldId (omitted for web masters).
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			p, err := principalFromClaims(claims)
			if err != nil {
				return err
			}
			c.Set(PrincipalKey, p)

			return next(c)
		}
	}
}

func principalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	sub, _ := claims.GetSubject()
	rawRole, _ := claims["role"].(string)
	fieldID, _ := claims["fieldId"].(string)

	role, ok := domain.ParseRole(rawRole)
	if sub == "" || !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if role != domain.RoleWebMaster && fieldID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing field identity")
	}
	return domain.Principal{ID: sub, Role: role, FieldID: fieldID}, nil
}
