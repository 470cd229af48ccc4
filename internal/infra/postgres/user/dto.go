package infra_postgres_user

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

type UserDB struct {
	ID           uuid.UUID      `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	AvatarKey    string         `db:"avatar_key"`
	AvatarURL    string         `db:"avatar_url"`
	IsVerified   bool           `db:"is_verified"`
	Courses      pq.StringArray `db:"courses"`
	CreatedAt    time.Time      `db:"created_at"`
}

func FromDomain(u model.User) UserDB {
	courses := make(pq.StringArray, len(u.Courses))
	for i, id := range u.Courses {
		courses[i] = id.String()
	}
	return UserDB{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		AvatarKey:    u.Avatar.Key,
		AvatarURL:    u.Avatar.URL,
		IsVerified:   u.IsVerified,
		Courses:      courses,
		CreatedAt:    u.CreatedAt,
	}
}

func (u UserDB) ToDomain() (model.User, error) {
	courses := make([]uuid.UUID, len(u.Courses))
	for i, raw := range u.Courses {
		id, err := uuid.Parse(raw)
		if err != nil {
			return model.User{}, err
		}
		courses[i] = id
	}
	return model.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         model.Role(u.Role),
		Avatar: model.Avatar{
			Key: u.AvatarKey,
			URL: u.AvatarURL,
		},
		IsVerified: u.IsVerified,
		Courses:    courses,
		CreatedAt:  u.CreatedAt,
	}, nil
}
