package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shenikar/civic_incident_tracker/internal/models"
	"github.com/sirupsen/logrus"
)

const principalContextKey = "principal"

// identityClaims - claims токена, выпущенного провайдером идентификации
type identityClaims struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

// IdentityMiddleware - middleware, которое превращает Bearer JWT в Principal.
// Запрос без заголовка Authorization считается анонимным,
// а невалидный токен отклоняется с 401.
func IdentityMiddleware(secret string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token format"})
			return
		}
		if secret == "" {
			log.Warn("Bearer token received but JWT_SECRET is not configured")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication is not configured"})
			return
		}

		principal, err := parsePrincipal(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			log.WithError(err).Warn("Invalid bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

func parsePrincipal(tokenString, secret string) (*models.Principal, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("token has no user_id claim")
	}

	return &models.Principal{
		ID:          claims.UserID,
		Role:        models.Role(claims.Role),
		IsStaff:     claims.IsStaff,
		IsSuperuser: claims.IsSuperuser,
	}, nil
}

// principalFromContext возвращает пользователя запроса или nil для анонимного
func principalFromContext(c *gin.Context) *models.Principal {
	value, ok := c.Get(principalContextKey)
	if !ok {
		return nil
	}
	principal, _ := value.(*models.Principal)
	return principal
}
