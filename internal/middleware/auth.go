package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/handler"
	"github.com/careflow/hospital-api/internal/model"
)

const contextActorKey = "actor"

// StaffClaims is the token payload issued by the identity provider. The
// subject is the staff member's UUID; role drives queue visibility.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate verifies the bearer token and sets the acting staff member
// in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		actor, err := m.parseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(contextActorKey, actor)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the actor holds one of the given roles.
func (m *AuthMiddleware) RequireRole(roles ...model.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
		c.Abort()
	}
}

func (m *AuthMiddleware) parseToken(tokenString string) (model.Actor, error) {
	var claims StaffClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return model.Actor{}, err
	}
	if !token.Valid {
		return model.Actor{}, fmt.Errorf("token is not valid")
	}

	staffID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid subject: %w", err)
	}

	role := model.StaffRole(claims.Role)
	if !role.Valid() {
		return model.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return model.Actor{ID: staffID, Role: role}, nil
}

// ActorFromContext returns the authenticated staff member set by
// Authenticate.
func ActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(contextActorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
