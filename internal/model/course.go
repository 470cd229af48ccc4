package model

import (
	"time"

	"github.com/google/uuid"
)

// Thumbnail references the course image in external object storage.
type Thumbnail struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}

// CourseSection is a single lecture inside a course. VideoURL and
// Suggestion are premium fields visible only to enrolled users.
type CourseSection struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url,omitempty"`
	VideoLength int       `json:"video_length"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

type Course struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          float64         `json:"price"`
	EstimatedPrice float64         `json:"estimated_price"`
	Tags           []string        `json:"tags"`
	Level          string          `json:"level"`
	Thumbnail      Thumbnail       `json:"thumbnail"`
	Benefits       []string        `json:"benefits"`
	Sections       []CourseSection `json:"sections"`
	Rating         float64         `json:"rating"`
	Purchased      int             `json:"purchased"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Public returns a copy with premium section fields stripped. This is
// the shape served to unauthenticated catalog and single-course reads,
// and the only shape that ever enters the cache.
func (c Course) Public() Course {
	out := c
	out.Sections = make([]CourseSection, len(c.Sections))
	for i, s := range c.Sections {
		s.VideoURL = ""
		s.Suggestion = ""
		out.Sections[i] = s
	}
	return out
}
