package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/sessions"
	"github.com/abodd44/hashdocker-document-hub/internal/tokens"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/internal/validation"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

// LoginRequest is the university ID login form.
type LoginRequest struct {
	UniversityID string `json:"universityId" binding:"required,universityid"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required,role"`
}

// SSORequest carries an authorization code returned by Keycloak.
type SSORequest struct {
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirectUri" binding:"required,url"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	// verifier checks access tokens presented at logout.
	verifier middleware.Verifier
	// sso verifies Keycloak ID tokens; nil disables /auth/sso.
	sso    middleware.Verifier
	client *http.Client
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, ver middleware.Verifier) *AuthHandler {
	validation.Default()
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, verifier: ver, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithSSO enables the Keycloak authorization code exchange.
func (h *AuthHandler) WithSSO(v middleware.Verifier) *AuthHandler {
	h.sso = v
	return h
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/sso", h.SSO)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// RegisterProfile adds the profile routes to an authenticated group.
func (h *AuthHandler) RegisterProfile(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
	rg.PATCH("/me", h.UpdateMe)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

// issue creates a refresh session and an access token for u.
func (h *AuthHandler) issue(c *gin.Context, u *models.User) {
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID, h.refreshTTL())
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	lang := u.Preferences.Language
	if !i18n.Supported(lang) {
		lang = middleware.Language(c)
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"expiresIn":    int(h.accessTTL().Seconds()),
		"user":         u,
		"message":      i18n.Tf(lang, "loginSuccessful", u.Name),
	})
}

// Login checks university ID, password and role.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.UniversityID, req.Password, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infof("login: user=%s role=%s", u.ID, u.Role)
	h.issue(c, u)
}

// SSO exchanges a Keycloak authorization code, verifies the ID token and
// provisions the portal user.
func (h *AuthHandler) SSO(c *gin.Context) {
	if h.sso == nil || h.cfg.Keycloak.URL == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "SSO not configured"})
		return
	}
	var req SSORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	tr, err := h.exchangeCode(c.Request.Context(), req.Code, req.RedirectURI)
	if err != nil {
		logger.Errorf("auth-code token exchange error (redirect_uri=%q): %v", req.RedirectURI, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}
	idt, err := h.sso.Verify(c.Request.Context(), tr.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	var claims map[string]interface{}
	if err := idt.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
		return
	}
	u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "id token has no subject"})
		return
	}
	h.issue(c, u)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// exchangeCode posts the code to the realm token endpoint. Client credentials
// go in the form first; a 401 is retried once with HTTP Basic auth.
func (h *AuthHandler) exchangeCode(ctx context.Context, code, redirectURI string) (*tokenResponse, error) {
	kc := h.cfg.Keycloak
	tokenURL := kc.Issuer() + "/protocol/openid-connect/token"
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", kc.ClientID)
	form.Set("client_secret", kc.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	body := form.Encode()

	post := func(basic bool) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if basic {
			req.SetBasicAuth(kc.ClientID, kc.ClientSecret)
		}
		return h.client.Do(req)
	}

	resp, err := post(false)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && kc.ClientSecret != "" {
		_ = resp.Body.Close()
		logger.Warnf("token exchange returned 401, retrying with basic auth")
		resp, err = post(true)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.IDToken == "" {
		return nil, fmt.Errorf("token response has no id_token")
	}
	return &tr, nil
}

// Refresh rotates the refresh token and returns a fresh token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	next, sess, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken, h.refreshTTL())
	if err != nil {
		logger.Errorf("refresh rotate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), sess.UserID)
	if err != nil || u == nil {
		_ = h.sessionsSvc.DeleteRefresh(c.Request.Context(), next)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": next, "expiresIn": int(h.accessTTL().Seconds())})
}

// Logout invalidates the refresh token and blacklists the presented access
// token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	var at string
	if n, _ := fmt.Sscanf(c.GetHeader("Authorization"), "Bearer %s", &at); n == 1 && h.verifier != nil {
		if exp, ok := h.tokenExpiry(c.Request.Context(), at); ok {
			if ttl := time.Until(exp); ttl > 0 {
				if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
					logger.Errorf("blacklist access token: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
					return
				}
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message(c, "loggedOut")})
}

// tokenExpiry verifies the token and reads its exp claim. Unverifiable tokens
// are not blacklisted; they are rejected by the auth middleware anyway.
func (h *AuthHandler) tokenExpiry(ctx context.Context, raw string) (time.Time, bool) {
	tok, err := h.verifier.Verify(ctx, raw)
	if err != nil {
		return time.Time{}, false
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return time.Time{}, false
	}
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case json.Number:
		n, err := v.Int64()
		return time.Unix(n, 0), err == nil
	}
	return time.Time{}, false
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=2"`
	Email          *string `json:"email" binding:"omitempty,email"`
	ProfilePicture *string `json:"profilePicture"`
}

// UpdateMe applies a partial profile update.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.usersSvc.UpdateProfile(c.Request.Context(), a.ID, users.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "message": message(c, "profileUpdated")})
}
