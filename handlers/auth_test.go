package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/oidc"
	"github.com/abodd44/hashdocker-document-hub/internal/seed"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	Message      string `json:"message"`
	User         struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"user"`
}

func login(t *testing.T, e *testEnv, id, password, role string) loginResponse {
	t.Helper()
	w := e.json(t, http.MethodPost, "/api/v1/auth/login", "", obj{"universityId": id, "password": password, "role": role})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp loginResponse
	decode(t, w, &resp)
	return resp
}

// obj is a shorthand for JSON payloads in these tests.
type obj = map[string]interface{}

func TestLoginAndProfile(t *testing.T) {
	e := newTestEnv(t)
	resp := login(t, e, seed.StudentID, seed.StudentPassword, "student")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 900, resp.ExpiresIn)
	assert.Equal(t, seed.StudentID, resp.User.ID)
	assert.Equal(t, "Welcome back, Ahmed Al-Jordani!", resp.Message)

	w := e.do(t, http.MethodGet, "/api/v1/me", resp.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		ID      string   `json:"id"`
		Courses []string `json:"courses"`
	}
	decode(t, w, &me)
	assert.Equal(t, seed.StudentID, me.ID)
	assert.Len(t, me.Courses, 3)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	cases := []struct {
		name, id, password, role string
	}{
		{"wrong password", seed.StudentID, "wrong-password", "student"},
		{"wrong role", seed.StudentID, seed.StudentPassword, "admin"},
		{"unknown user", "9999999", "whatever1", "student"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.json(t, http.MethodPost, "/api/v1/auth/login", "", obj{"universityId": tc.id, "password": tc.password, "role": tc.role})
			require.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			decode(t, w, &body)
			assert.Equal(t, i18n.T(i18n.English, "errorInvalidCredentials"), body["error"])
		})
	}

	w := e.json(t, http.MethodPost, "/api/v1/auth/login", "", obj{"universityId": seed.AdminID, "password": "nope-nope", "role": "admin"}, "Accept-Language", "ar")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, i18n.T(i18n.Arabic, "errorInvalidCredentials"), body["error"])
}

func TestLoginValidation(t *testing.T) {
	e := newTestEnv(t)
	w := e.json(t, http.MethodPost, "/api/v1/auth/login", "", obj{"universityId": "12ab", "password": "123", "role": "teacher"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "universityId")
	assert.Contains(t, body.Fields, "password")
	assert.Contains(t, body.Fields, "role")
}

func TestRefreshRotatesToken(t *testing.T) {
	e := newTestEnv(t)
	first := login(t, e, seed.AdminID, seed.AdminPassword, "admin")

	w := e.json(t, http.MethodPost, "/api/v1/auth/refresh", "", obj{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next loginResponse
	decode(t, w, &next)
	require.NotEmpty(t, next.AccessToken)
	require.NotEqual(t, first.RefreshToken, next.RefreshToken)

	w = e.do(t, http.MethodGet, "/api/v1/me", next.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// the rotated-out token is spent
	w = e.json(t, http.MethodPost, "/api/v1/auth/refresh", "", obj{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.json(t, http.MethodPost, "/api/v1/auth/refresh", "", obj{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesTokens(t *testing.T) {
	e := newTestEnv(t)
	resp := login(t, e, seed.StudentID, seed.StudentPassword, "student")

	w := e.json(t, http.MethodPost, "/api/v1/auth/logout", resp.AccessToken, obj{"refreshToken": resp.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "Logged out", body["message"])

	w = e.do(t, http.MethodGet, "/api/v1/me", resp.AccessToken, nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")

	w = e.json(t, http.MethodPost, "/api/v1/auth/refresh", "", obj{"refreshToken": resp.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, seed.StudentID)

	w := e.json(t, http.MethodPatch, "/api/v1/me", tok, obj{"name": "Ahmed J.", "email": "ahmed@uni.example.edu"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		User struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
		Message string `json:"message"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Ahmed J.", body.User.Name)
	assert.Equal(t, "ahmed@uni.example.edu", body.User.Email)
	assert.NotEmpty(t, body.Message)

	w = e.json(t, http.MethodPatch, "/api/v1/me", tok, obj{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email")
}

func TestSSONotConfigured(t *testing.T) {
	e := newTestEnv(t)
	w := e.json(t, http.MethodPost, "/api/v1/auth/sso", "", obj{"code": "abc", "redirectUri": "http://localhost/cb"})
	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestSSOExchangeProvisionsUser(t *testing.T) {
	e := newTestEnv(t)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var gotForm map[string]string
	var issuer string
	kc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotForm = map[string]string{"grant_type": r.PostForm.Get("grant_type"), "code": r.PostForm.Get("code")}
		now := time.Now()
		idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss":                issuer,
			"aud":                "hashdoc-portal",
			"sub":                "kc-3333333",
			"preferred_username": "3333333",
			"name":               "Lina Saleh",
			"email":              "lina@uni.example.edu",
			"iat":                now.Unix(),
			"exp":                now.Add(time.Minute).Unix(),
		}).SignedString(key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "kc-at", "id_token": idToken})
	}))
	defer kc.Close()

	e.cfg.Keycloak.URL = kc.URL
	e.cfg.Keycloak.Realm = "hashdoc"
	e.cfg.Keycloak.ClientID = "hashdoc-portal"
	issuer = e.cfg.Keycloak.Issuer()
	e.api.Auth.WithSSO(oidc.NewStaticVerifier(issuer, "hashdoc-portal", key.Public()))

	w := e.json(t, http.MethodPost, "/api/v1/auth/sso", "", obj{"code": "abc", "redirectUri": "http://localhost/cb"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "abc", gotForm["code"])

	var resp loginResponse
	decode(t, w, &resp)
	assert.Equal(t, "3333333", resp.User.ID)
	assert.Equal(t, "student", resp.User.Role)

	w = e.do(t, http.MethodGet, "/api/v1/me", resp.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}
