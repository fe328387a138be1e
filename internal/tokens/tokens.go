package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

const issuer = "hashdoc"

var ErrInvalidToken = errors.New("invalid token")

// Claims are the portal access token claims.
type Claims struct {
	UserID   string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Language string `json:"lang,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		Language: u.Preferences.Language,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// Verifier checks HS256 access tokens issued by GenerateAccessToken.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates the signature and expiry and returns the typed claims.
func (v *Verifier) Parse(token string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}
	return &c, nil
}

// mapToken exposes verified claims to the auth middleware.
type mapToken struct {
	claims map[string]interface{}
}

func (t *mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verify implements middleware.Verifier for locally issued tokens.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	c, err := v.Parse(raw)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{
		"sub":  c.Subject,
		"uid":  c.UserID,
		"name": c.Name,
		"role": c.Role,
	}
	if c.Email != "" {
		m["email"] = c.Email
	}
	if c.Language != "" {
		m["lang"] = c.Language
	}
	if c.ExpiresAt != nil {
		m["exp"] = c.ExpiresAt.Unix()
	}
	return &mapToken{claims: m}, nil
}
