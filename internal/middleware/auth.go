package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
	"github.com/Dentect/dentist-clinic-backend/internal/service/auth"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/httputil"
)

// MsgAccessDenied is the fixed rejection message for missing or invalid
// credentials.
const MsgAccessDenied = "Access denied."

// ContextDentistID is the gin context key carrying the authenticated dentist.
const ContextDentistID = "dentistID"

const (
	claimsCacheTTL     = 30 * time.Second
	claimsCacheCleanup = 5 * time.Minute
)

type AuthMiddleware struct {
	authService auth.Service
	claimsCache *cache.Cache
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		claimsCache: cache.New(claimsCacheTTL, claimsCacheCleanup),
	}
}

// Authenticate verifies the bearer token and sets the dentist id in context.
// Rejection is terminal per request; nothing downstream runs.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.deny(c)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.deny(c)
			return
		}
		token := parts[1]

		claims, err := m.lookupClaims(c, token)
		if err != nil {
			m.deny(c)
			return
		}

		c.Set(ContextDentistID, claims.DentistID)
		c.Next()
	}
}

// lookupClaims serves recently verified tokens from cache to skip repeated
// signature checks. The TTL is far below token lifetime, so a cached hit can
// never outlive its token's expiry by a meaningful margin.
func (m *AuthMiddleware) lookupClaims(c *gin.Context, token string) (*model.TokenClaims, error) {
	if cached, ok := m.claimsCache.Get(token); ok {
		return cached.(*model.TokenClaims), nil
	}

	claims, err := m.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}

	m.claimsCache.Set(token, claims, cache.DefaultExpiration)
	return claims, nil
}

func (m *AuthMiddleware) deny(c *gin.Context) {
	httputil.RespondWithError(c, apperrors.NewUnauthorized(MsgAccessDenied, nil))
	c.Abort()
}
