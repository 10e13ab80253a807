package middleware

import (
	"net/http"
	"strings"

	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/dto"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ctxUserID      = "user_id"
	ctxUserEmail   = "user_email"
	ctxDisplayName = "display_name"
)

type AuthMiddleware struct {
	jwtService *service.JWTService
}

func NewAuthMiddleware(jwtService *service.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// RequireAuth verifies the bearer token issued by the external
// Authentication service, spec §6. The Authorization header is read
// first; a cookie named "token" is the fallback — this module only
// verifies, it never mints the cookie itself.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			if cookieToken, err := c.Cookie("token"); err == nil && cookieToken != "" {
				tokenString = cookieToken
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, dto.NewErrorEnvelopeForCode(dto.ErrCodeUnauthorized, nil))
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.NewErrorEnvelopeForCode(dto.ErrCodeUnauthorized, nil, "invalid or expired token"))
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.NewErrorEnvelopeForCode(dto.ErrCodeUnauthorized, nil, "invalid token subject"))
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxDisplayName, claims.DisplayName)

		c.Next()
	}
}

// InternalAuth verifies the shared-secret bearer token the Project and
// Task services use to call each other's internal endpoints (spec §4.4).
// It never runs user JWT verification: the internal surface is not
// reachable from the public API.
func InternalAuth(sharedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "Bearer "+sharedSecret {
			c.JSON(http.StatusUnauthorized, dto.NewErrorEnvelopeForCode(dto.ErrCodeUnauthorized, nil, "invalid internal credential"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID reads the authenticated caller's id, set by RequireAuth.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// CurrentUserEmail reads the authenticated caller's email, set by
// RequireAuth.
func CurrentUserEmail(c *gin.Context) string {
	v, _ := c.Get(ctxUserEmail)
	email, _ := v.(string)
	return email
}
