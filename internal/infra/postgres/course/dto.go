package infra_postgres_course

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

type CourseDB struct {
	ID             uuid.UUID      `db:"id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Price          float64        `db:"price"`
	EstimatedPrice float64        `db:"estimated_price"`
	Tags           pq.StringArray `db:"tags"`
	Level          string         `db:"level"`
	ThumbnailKey   string         `db:"thumbnail_key"`
	ThumbnailURL   string         `db:"thumbnail_url"`
	Benefits       pq.StringArray `db:"benefits"`
	Sections       []byte         `db:"sections"`
	Rating         float64        `db:"rating"`
	Purchased      int            `db:"purchased"`
	CreatedAt      time.Time      `db:"created_at"`
}

func FromDomain(c model.Course) (CourseDB, error) {
	sections, err := json.Marshal(c.Sections)
	if err != nil {
		return CourseDB{}, fmt.Errorf("failed to marshal sections: %w", err)
	}
	return CourseDB{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		EstimatedPrice: c.EstimatedPrice,
		Tags:           pq.StringArray(c.Tags),
		Level:          c.Level,
		ThumbnailKey:   c.Thumbnail.Key,
		ThumbnailURL:   c.Thumbnail.URL,
		Benefits:       pq.StringArray(c.Benefits),
		Sections:       sections,
		Rating:         c.Rating,
		Purchased:      c.Purchased,
		CreatedAt:      c.CreatedAt,
	}, nil
}

func (c CourseDB) ToDomain() (model.Course, error) {
	var sections []model.CourseSection
	if len(c.Sections) > 0 {
		if err := json.Unmarshal(c.Sections, &sections); err != nil {
			return model.Course{}, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
	}
	return model.Course{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		EstimatedPrice: c.EstimatedPrice,
		Tags:           []string(c.Tags),
		Level:          c.Level,
		Thumbnail: model.Thumbnail{
			Key: c.ThumbnailKey,
			URL: c.ThumbnailURL,
		},
		Benefits:  []string(c.Benefits),
		Sections:  sections,
		Rating:    c.Rating,
		Purchased: c.Purchased,
		CreatedAt: c.CreatedAt,
	}, nil
}
