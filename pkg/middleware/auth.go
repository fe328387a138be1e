package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/sessions"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

const (
	claimsKey    = "claims"
	principalKey = "principal"
	tokenKey     = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []Verifier

func (cv ChainVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range cv {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no verifier configured")
	}
	return nil, errors.Join(errs...)
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	Name     string
	Role     string
	Language string
}

func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// PrincipalResolver turns verified claims into a principal, e.g. by provisioning an SSO user.
type PrincipalResolver func(ctx context.Context, claims map[string]interface{}) (Principal, error)

// PrincipalFromClaims reads the portal claims uid, name, role and lang; sub stands in for a missing uid.
func PrincipalFromClaims(_ context.Context, claims map[string]interface{}) (Principal, error) {
	str := func(k string) string { s, _ := claims[k].(string); return s }
	p := Principal{UserID: str("uid"), Name: str("name"), Role: str("role"), Language: str("lang")}
	if p.UserID == "" {
		p.UserID = str("sub")
	}
	if p.UserID == "" {
		return Principal{}, errors.New("token has no subject")
	}
	if p.Role == "" {
		p.Role = "student"
	}
	return p, nil
}

type authOptions struct {
	resolver PrincipalResolver
}

type AuthOption func(*authOptions)

// WithPrincipalResolver replaces PrincipalFromClaims.
func WithPrincipalResolver(r PrincipalResolver) AuthOption {
	return func(o *authOptions) { o.resolver = r }
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
// and rejects tokens revoked at logout.
func AuthMiddleware(ver Verifier, opts ...AuthOption) gin.HandlerFunc {
	o := authOptions{resolver: PrincipalFromClaims}
	for _, fn := range opts {
		fn(&o)
	}
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		revoked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Errorf("blacklist lookup failed: %v", err)
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		// Extract claims
		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		p, err := o.resolver(c.Request.Context(), claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown principal", "details": err.Error()})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(tokenKey, token)
		c.Set(principalKey, p)
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// AccessToken returns the raw bearer token of the request.
func AccessToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Claims returns the verified claims map.
func Claims(c *gin.Context) map[string]interface{} {
	v, _ := c.Get(claimsKey)
	m, _ := v.(map[string]interface{})
	return m
}

// RequireRole rejects callers whose role is not listed with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		for _, r := range roles {
			if strings.EqualFold(p.Role, r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
