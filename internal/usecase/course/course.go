package usecase_course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

var (
	ErrNotEligible       = errors.New("not eligible to access this course")
	ErrInvalidInput      = errors.New("invalid input")
	ErrFailedToStore     = errors.New("failed to store course")
	ErrFailedToLoad      = errors.New("failed to load course")
	ErrUnknownCacheEntry = errors.New("unknown cache entry version")
)

// catalogCacheKey holds the full course list. Every write to any course
// invalidates it.
const catalogCacheKey = "all_courses"

type Repository interface {
	Store(ctx context.Context, c model.Course) error
	LoadByID(ctx context.Context, ID uuid.UUID) (model.Course, error)
	Load(ctx context.Context) ([]*model.Course, error)
	Update(ctx context.Context, c model.Course) error
	DeleteByID(ctx context.Context, ID uuid.UUID) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type ThumbnailStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (key string, url string, err error)
	Delete(ctx context.Context, key string) error
}

const cacheSchemaVersion = 1

type courseEntry struct {
	Version int          `json:"v"`
	Course  model.Course `json:"course"`
}

type catalogEntry struct {
	Version int            `json:"v"`
	Courses []model.Course `json:"courses"`
}

type Usecase struct {
	repository Repository
	cache      Cache
	thumbnails ThumbnailStorage

	logger *slog.Logger
}

type UsecaseOption func(*Usecase)

func WithLogger(logger *slog.Logger) UsecaseOption {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func New(repository Repository, cache Cache, thumbnails ThumbnailStorage, opts ...UsecaseOption) *Usecase {
	u := &Usecase{
		repository: repository,
		cache:      cache,
		thumbnails: thumbnails,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Create persists the course and invalidates the catalog entry before
// returning; a stale catalog after a successful create is not allowed.
func (u *Usecase) Create(ctx context.Context, c model.Course, thumbnail []byte, contentType string) (model.Course, error) {
	if c.Title == "" {
		return model.Course{}, fmt.Errorf("%w: course title cannot be empty", ErrInvalidInput)
	}

	if len(thumbnail) > 0 {
		key, url, err := u.thumbnails.Save(ctx, "thumbnails/"+c.ID.String(), thumbnail, contentType)
		if err != nil {
			return model.Course{}, fmt.Errorf("failed to upload thumbnail: %w", err)
		}
		c.Thumbnail = model.Thumbnail{Key: key, URL: url}
	}

	if err := u.repository.Store(ctx, c); err != nil {
		return model.Course{}, fmt.Errorf("%w: %w", ErrFailedToStore, err)
	}

	if err := u.cache.Delete(ctx, catalogCacheKey); err != nil {
		return model.Course{}, fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}

	return c, nil
}

// Update overlays the provided fields on the stored course. Omitted
// fields keep their stored values; rating, purchase counter and the
// creation time always survive an edit.
func (u *Usecase) Update(ctx context.Context, c model.Course, thumbnail []byte, contentType string) (model.Course, error) {
	current, err := u.repository.LoadByID(ctx, c.ID)
	if err != nil {
		return model.Course{}, u.mapLoadErr(err)
	}

	merged := mergeCourse(current, c)

	if len(thumbnail) > 0 {
		if current.Thumbnail.Key != "" {
			if err := u.thumbnails.Delete(ctx, current.Thumbnail.Key); err != nil {
				u.logger.Warn("failed to delete previous thumbnail",
					slog.String("key", current.Thumbnail.Key),
					slog.String("error", err.Error()),
				)
			}
		}
		key, url, err := u.thumbnails.Save(ctx, "thumbnails/"+c.ID.String(), thumbnail, contentType)
		if err != nil {
			return model.Course{}, fmt.Errorf("failed to upload thumbnail: %w", err)
		}
		merged.Thumbnail = model.Thumbnail{Key: key, URL: url}
	}

	if err := u.repository.Update(ctx, merged); err != nil {
		if errors.Is(err, model.ErrCourseNotFound) {
			return model.Course{}, model.ErrCourseNotFound
		}
		return model.Course{}, fmt.Errorf("%w: %w", ErrFailedToStore, err)
	}

	if err := u.cache.Delete(ctx, c.ID.String(), catalogCacheKey); err != nil {
		return model.Course{}, fmt.Errorf("failed to invalidate course cache: %w", err)
	}

	return merged, nil
}

func mergeCourse(current, in model.Course) model.Course {
	out := current
	if in.Title != "" {
		out.Title = in.Title
	}
	if in.Description != "" {
		out.Description = in.Description
	}
	if in.Price != 0 {
		out.Price = in.Price
	}
	if in.EstimatedPrice != 0 {
		out.EstimatedPrice = in.EstimatedPrice
	}
	if len(in.Tags) > 0 {
		out.Tags = in.Tags
	}
	if in.Level != "" {
		out.Level = in.Level
	}
	if len(in.Benefits) > 0 {
		out.Benefits = in.Benefits
	}
	if len(in.Sections) > 0 {
		out.Sections = in.Sections
	}
	return out
}

func (u *Usecase) Delete(ctx context.Context, ID uuid.UUID) error {
	if err := u.repository.DeleteByID(ctx, ID); err != nil {
		if errors.Is(err, model.ErrCourseNotFound) {
			return model.ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	if err := u.cache.Delete(ctx, ID.String(), catalogCacheKey); err != nil {
		return fmt.Errorf("failed to invalidate course cache: %w", err)
	}

	return nil
}

// GetByID serves the public view of a single course through the cache.
// A miss loads from the store and populates the entry; not-found is
// never cached, so probing a dead id always reaches the store.
// Concurrent misses may each invoke the load; last writer wins.
func (u *Usecase) GetByID(ctx context.Context, ID uuid.UUID) (model.Course, error) {
	cached, ok, err := u.cache.Get(ctx, ID.String())
	if err != nil {
		return model.Course{}, fmt.Errorf("failed to read course cache: %w", err)
	}
	if ok {
		var entry courseEntry
		if err := json.Unmarshal([]byte(cached), &entry); err != nil {
			return model.Course{}, fmt.Errorf("failed to decode cached course: %w", err)
		}
		if entry.Version != cacheSchemaVersion {
			return model.Course{}, fmt.Errorf("%w: %d", ErrUnknownCacheEntry, entry.Version)
		}
		return entry.Course, nil
	}

	course, err := u.repository.LoadByID(ctx, ID)
	if err != nil {
		return model.Course{}, u.mapLoadErr(err)
	}

	public := course.Public()
	data, err := json.Marshal(courseEntry{Version: cacheSchemaVersion, Course: public})
	if err != nil {
		return model.Course{}, fmt.Errorf("failed to encode course for cache: %w", err)
	}
	if err := u.cache.Set(ctx, ID.String(), string(data)); err != nil {
		return model.Course{}, fmt.Errorf("failed to populate course cache: %w", err)
	}

	return public, nil
}

// List serves the public catalog through the cache under a fixed key.
func (u *Usecase) List(ctx context.Context) ([]model.Course, error) {
	cached, ok, err := u.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog cache: %w", err)
	}
	if ok {
		var entry catalogEntry
		if err := json.Unmarshal([]byte(cached), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode cached catalog: %w", err)
		}
		if entry.Version != cacheSchemaVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCacheEntry, entry.Version)
		}
		return entry.Courses, nil
	}

	courses, err := u.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoad, err)
	}

	public := make([]model.Course, len(courses))
	for i, c := range courses {
		public[i] = c.Public()
	}

	data, err := json.Marshal(catalogEntry{Version: cacheSchemaVersion, Courses: public})
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog for cache: %w", err)
	}
	if err := u.cache.Set(ctx, catalogCacheKey, string(data)); err != nil {
		return nil, fmt.Errorf("failed to populate catalog cache: %w", err)
	}

	return public, nil
}

// GetContent returns the full course, premium fields included, for
// enrolled users only. It bypasses the cache: the cached snapshot is
// the stripped public view.
func (u *Usecase) GetContent(ctx context.Context, user model.User, ID uuid.UUID) (model.Course, error) {
	if !user.IsEnrolled(ID) {
		return model.Course{}, ErrNotEligible
	}

	course, err := u.repository.LoadByID(ctx, ID)
	if err != nil {
		return model.Course{}, u.mapLoadErr(err)
	}
	return course, nil
}

func (u *Usecase) mapLoadErr(err error) error {
	if errors.Is(err, model.ErrCourseNotFound) {
		return model.ErrCourseNotFound
	}
	return fmt.Errorf("%w: %w", ErrFailedToLoad, err)
}
