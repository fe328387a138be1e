package models

import (
	"regexp"
	"time"
)

// Role is the portal role of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleStudent || r == RoleAdmin }

var universityIDPattern = regexp.MustCompile(`^[0-9]{7}$`)

// IsUniversityID reports whether s has the 7-digit university ID format.
func IsUniversityID(s string) bool { return universityIDPattern.MatchString(s) }

// Preferences holds per-user presentation settings.
type Preferences struct {
	Theme    string `bson:"theme" json:"theme"`
	Language string `bson:"language" json:"language"`
}

// User is a portal account. ID is the university ID for local accounts.
type User struct {
	ID             string      `bson:"_id" json:"id"`
	Sub            string      `bson:"sub,omitempty" json:"sub,omitempty"` // OIDC subject for SSO accounts
	Name           string      `bson:"name" json:"name"`
	Email          string      `bson:"email,omitempty" json:"email,omitempty"`
	Role           Role        `bson:"role" json:"role"`
	PasswordHash   []byte      `bson:"passwordHash,omitempty" json:"-"`
	ProfilePicture string      `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Courses        []string    `bson:"courses,omitempty" json:"courses,omitempty"`
	Preferences    Preferences `bson:"preferences" json:"preferences"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// EnrolledIn reports whether the user takes the given course.
func (u *User) EnrolledIn(courseID string) bool {
	for _, c := range u.Courses {
		if c == courseID {
			return true
		}
	}
	return false
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Actor returns the acting identity of the user.
func (u *User) Actor() Actor { return Actor{ID: u.ID, Name: u.Name, Role: u.Role} }
