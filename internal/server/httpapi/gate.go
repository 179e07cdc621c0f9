package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Gate authenticates requests by their bearer access token.
type Gate struct {
	verifier TokenVerifier
}

func NewGate(v TokenVerifier) *Gate {
	return &Gate{verifier: v}
}

// Authenticate rejects the request with 401 when the token is missing or
// expired and 403 when it is otherwise invalid. On success the claims are
// attached to the request context.
func (g *Gate) Authenticate(c *gin.Context) {
	token := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
	if token == "" {
		_ = c.Error(errMissingAccessToken)
		c.Abort()
		return
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		if auth.IsExpired(err) {
			_ = c.Error(errAccessTokenExpired)
		} else {
			_ = c.Error(errInvalidAccessToken)
		}
		c.Abort()
		return
	}
	if claims.Kind != auth.KindAccess {
		_ = c.Error(errInvalidAccessToken)
		c.Abort()
		return
	}

	c.Request = c.Request.WithContext(auth.ContextWithClaims(c.Request.Context(), claims))
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
