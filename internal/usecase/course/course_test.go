package usecase_course

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

type countingRepo struct {
	mu      sync.Mutex
	courses map[uuid.UUID]model.Course

	loadByIDCalls int
	loadAllCalls  int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{courses: make(map[uuid.UUID]model.Course)}
}

func (r *countingRepo) Store(_ context.Context, c model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
	return nil
}

func (r *countingRepo) LoadByID(_ context.Context, ID uuid.UUID) (model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadByIDCalls++
	c, ok := r.courses[ID]
	if !ok {
		return model.Course{}, model.ErrCourseNotFound
	}
	return c, nil
}

func (r *countingRepo) Load(_ context.Context) ([]*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadAllCalls++
	out := make([]*model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

func (r *countingRepo) Update(_ context.Context, c model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return model.ErrCourseNotFound
	}
	r.courses[c.ID] = c
	return nil
}

func (r *countingRepo) DeleteByID(_ context.Context, ID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[ID]; !ok {
		return model.ErrCourseNotFound
	}
	delete(r.courses, ID)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type noopThumbnails struct{}

func (noopThumbnails) Save(_ context.Context, name string, _ []byte, _ string) (string, string, error) {
	return name, "https://assets.local/" + name, nil
}

func (noopThumbnails) Delete(context.Context, string) error { return nil }

type resources struct {
	usecase *Usecase
	repo    *countingRepo
	cache   *memoryCache
	ctx     context.Context
}

func initResources() *resources {
	repo := newCountingRepo()
	cache := newMemoryCache()
	return &resources{
		usecase: New(repo, cache, noopThumbnails{}),
		repo:    repo,
		cache:   cache,
		ctx:     context.Background(),
	}
}

func buildCourse(title string) model.Course {
	return model.Course{
		ID:          uuid.New(),
		Title:       title,
		Description: "desc",
		Price:       49.99,
		Level:       "beginner",
		Sections: []model.CourseSection{
			{
				ID:          uuid.New(),
				Title:       "Intro",
				VideoURL:    "https://videos.local/intro.mp4",
				VideoLength: 300,
				Suggestion:  "watch twice",
			},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

type UsecaseCourseUnitSuite struct {
	suite.Suite
}

func (s *UsecaseCourseUnitSuite) TestGetByIDLoadsOnceThenServesFromCache(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Go Basics")
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	first, err := r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)

	second, err := r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, r.repo.loadByIDCalls)
	assert.Equal(t, first, second)
}

func (s *UsecaseCourseUnitSuite) TestCachedViewStripsPremiumFields(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Go Basics")
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	got, err := r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	assert.Empty(t, got.Sections[0].VideoURL)
	assert.Empty(t, got.Sections[0].Suggestion)
	assert.Equal(t, "Intro", got.Sections[0].Title)
}

func (s *UsecaseCourseUnitSuite) TestNotFoundIsNeverCached(t provider.T) {
	t.Parallel()
	r := initResources()
	missing := uuid.New()

	_, err := r.usecase.GetByID(r.ctx, missing)
	assert.ErrorIs(t, err, model.ErrCourseNotFound)

	_, err = r.usecase.GetByID(r.ctx, missing)
	assert.ErrorIs(t, err, model.ErrCourseNotFound)

	// Both probes reached the store.
	assert.Equal(t, 2, r.repo.loadByIDCalls)
	assert.False(t, r.cache.has(missing.String()))
}

func (s *UsecaseCourseUnitSuite) TestUpdateInvalidatesCourseAndCatalog(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Go Basics")
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	_, err = r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)
	_, err = r.usecase.List(r.ctx)
	require.NoError(t, err)
	require.True(t, r.cache.has(course.ID.String()))
	require.True(t, r.cache.has(catalogCacheKey))

	course.Title = "Go Basics, 2nd ed."
	_, err = r.usecase.Update(r.ctx, course, nil, "")
	require.NoError(t, err)

	assert.False(t, r.cache.has(course.ID.String()))
	assert.False(t, r.cache.has(catalogCacheKey))

	got, err := r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics, 2nd ed.", got.Title)
	// First read, the merge load inside Update, re-read after invalidation.
	assert.Equal(t, 3, r.repo.loadByIDCalls)
}

func (s *UsecaseCourseUnitSuite) TestUpdateKeepsOmittedFields(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Go Basics")
	course.Tags = []string{"go", "backend"}
	course.Rating = 4.5
	course.Purchased = 120
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	_, err = r.usecase.Update(r.ctx, model.Course{
		ID:    course.ID,
		Title: "Go Basics, 2nd ed.",
	}, nil, "")
	require.NoError(t, err)

	stored, ok := r.repo.courses[course.ID]
	require.True(t, ok)
	assert.Equal(t, "Go Basics, 2nd ed.", stored.Title)
	assert.Equal(t, "desc", stored.Description)
	assert.Equal(t, 49.99, stored.Price)
	assert.Equal(t, []string{"go", "backend"}, stored.Tags)
	assert.Len(t, stored.Sections, 1)
	assert.Equal(t, 4.5, stored.Rating)
	assert.Equal(t, 120, stored.Purchased)
	assert.Equal(t, course.CreatedAt, stored.CreatedAt)
}

func (s *UsecaseCourseUnitSuite) TestCreateInvalidatesCatalog(t provider.T) {
	t.Parallel()
	r := initResources()
	_, err := r.usecase.Create(r.ctx, buildCourse("First"), nil, "")
	require.NoError(t, err)

	list, err := r.usecase.List(r.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = r.usecase.Create(r.ctx, buildCourse("Second"), nil, "")
	require.NoError(t, err)

	list, err = r.usecase.List(r.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, r.repo.loadAllCalls)
}

func (s *UsecaseCourseUnitSuite) TestDeleteInvalidatesBothKeys(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Doomed")
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	_, err = r.usecase.GetByID(r.ctx, course.ID)
	require.NoError(t, err)
	_, err = r.usecase.List(r.ctx)
	require.NoError(t, err)

	require.NoError(t, r.usecase.Delete(r.ctx, course.ID))
	assert.False(t, r.cache.has(course.ID.String()))
	assert.False(t, r.cache.has(catalogCacheKey))

	_, err = r.usecase.GetByID(r.ctx, course.ID)
	assert.ErrorIs(t, err, model.ErrCourseNotFound)
}

func (s *UsecaseCourseUnitSuite) TestGetContentRequiresEnrollment(t provider.T) {
	t.Parallel()
	r := initResources()
	course := buildCourse("Members Only")
	_, err := r.usecase.Create(r.ctx, course, nil, "")
	require.NoError(t, err)

	outsider := model.User{ID: uuid.New()}
	_, err = r.usecase.GetContent(r.ctx, outsider, course.ID)
	assert.ErrorIs(t, err, ErrNotEligible)

	member := model.User{ID: uuid.New(), Courses: []uuid.UUID{course.ID}}
	got, err := r.usecase.GetContent(r.ctx, member, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://videos.local/intro.mp4", got.Sections[0].VideoURL)
}

func (s *UsecaseCourseUnitSuite) TestCreateRejectsEmptyTitle(t provider.T) {
	t.Parallel()
	r := initResources()

	_, err := r.usecase.Create(r.ctx, model.Course{ID: uuid.New()}, nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUsecaseCourseUnit(t *testing.T) {
	suite.RunSuite(t, new(UsecaseCourseUnitSuite))
}
