package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Avatar references an object in external storage. Key is empty for
// social-auth users whose picture lives on the provider's CDN.
type Avatar struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}

// User is the authenticated identity. The PasswordHash never leaves the
// process: session snapshots and API responses are built from the JSON
// form, which excludes it.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Avatar       Avatar      `json:"avatar"`
	IsVerified   bool        `json:"is_verified"`
	Courses      []uuid.UUID `json:"courses"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (u User) IsEnrolled(courseID uuid.UUID) bool {
	for _, id := range u.Courses {
		if id == courseID {
			return true
		}
	}
	return false
}
