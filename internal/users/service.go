package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUser        = errors.New("invalid user")
)

// MinPasswordLength is the shortest password accepted at registration and login.
const MinPasswordLength = 6

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, cost: bcrypt.DefaultCost}
}

// NewUser carries the fields needed to register a local account.
type NewUser struct {
	ID             string
	Name           string
	Email          string
	Role           models.Role
	Password       string
	ProfilePicture string
	Courses        []string
}

// Register creates a local account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, nu NewUser) (*models.User, error) {
	if !models.IsUniversityID(nu.ID) {
		return nil, fmt.Errorf("%w: id must be a 7-digit university id", ErrInvalidUser)
	}
	if !nu.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, nu.Role)
	}
	if len(nu.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidUser)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:             nu.ID,
		Name:           strings.TrimSpace(nu.Name),
		Email:          strings.TrimSpace(nu.Email),
		Role:           nu.Role,
		PasswordHash:   hash,
		ProfilePicture: nu.ProfilePicture,
		Courses:        nu.Courses,
		Preferences:    DefaultPreferences(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DefaultPreferences is the light theme in English.
func DefaultPreferences() models.Preferences {
	return models.Preferences{Theme: i18n.ThemeLight, Language: i18n.English}
}

// Authenticate returns the account matching id, password and role.
// Every mismatch yields ErrInvalidCredentials so callers cannot probe accounts.
func (s *Service) Authenticate(ctx context.Context, id, password string, role models.Role) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Role != role || len(u.PasswordHash) == 0 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	u := &models.User{
		ID:          IDFromClaims(claims),
		Sub:         sub,
		Email:       email,
		Name:        name,
		Role:        RoleFromClaims(claims),
		Preferences: DefaultPreferences(),
	}
	return s.repo.UpsertBySub(ctx, u)
}

// IDFromClaims maps SSO claims to a portal user id: the university ID carried
// in preferred_username when present, otherwise the subject.
func IDFromClaims(claims map[string]interface{}) string {
	if uid, _ := claims["uid"].(string); uid != "" {
		return uid
	}
	if pu, _ := claims["preferred_username"].(string); models.IsUniversityID(pu) {
		return pu
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// RoleFromClaims reads the "role" claim, or a realm role named admin; students otherwise.
func RoleFromClaims(claims map[string]interface{}) models.Role {
	if r, _ := claims["role"].(string); models.Role(r).Valid() {
		return models.Role(r)
	}
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := ra["roles"].([]interface{}); ok {
			for _, r := range roles {
				if s, _ := r.(string); s == string(models.RoleAdmin) {
					return models.RoleAdmin
				}
			}
		}
	}
	return models.RoleStudent
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// ListAdmins returns every admin account.
func (s *Service) ListAdmins(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListByRole(ctx, models.RoleAdmin)
}

// Count returns the number of stored accounts.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	ProfilePicture *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidUser)
		}
		u.Name = name
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePreferences stores theme and language; empty values keep the current setting.
func (s *Service) UpdatePreferences(ctx context.Context, id string, p models.Preferences) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Theme != "" {
		if !i18n.ValidTheme(p.Theme) {
			return nil, fmt.Errorf("%w: unknown theme %q", ErrInvalidUser, p.Theme)
		}
		u.Preferences.Theme = p.Theme
	}
	if p.Language != "" {
		if !i18n.Supported(p.Language) {
			return nil, fmt.Errorf("%w: unsupported language %q", ErrInvalidUser, p.Language)
		}
		u.Preferences.Language = p.Language
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleTheme flips between the light and dark theme.
func (s *Service) ToggleTheme(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Preferences.Theme = i18n.ToggleTheme(u.Preferences.Theme)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Language returns the preferred language of a user, English when unknown.
func (s *Service) Language(ctx context.Context, id string) string {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil || u.Preferences.Language == "" {
		return i18n.English
	}
	return u.Preferences.Language
}
