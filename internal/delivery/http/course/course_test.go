package http_course

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	http_auth_middleware "github.com/vpetrakov/learnhub/core/internal/delivery/http/middleware/auth"
	"github.com/vpetrakov/learnhub/core/internal/model"
	service_token "github.com/vpetrakov/learnhub/core/internal/service/token"
	usecase_course "github.com/vpetrakov/learnhub/core/internal/usecase/course"
)

type memoryCourseRepo struct {
	mu      sync.Mutex
	courses map[uuid.UUID]model.Course
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uuid.UUID]model.Course)}
}

func (r *memoryCourseRepo) Store(_ context.Context, c model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
	return nil
}

func (r *memoryCourseRepo) LoadByID(_ context.Context, id uuid.UUID) (model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return model.Course{}, model.ErrCourseNotFound
	}
	return c, nil
}

func (r *memoryCourseRepo) Load(_ context.Context) ([]*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Course, 0, len(r.courses))
	for id := range r.courses {
		c := r.courses[id]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memoryCourseRepo) Update(_ context.Context, c model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return model.ErrCourseNotFound
	}
	r.courses[c.ID] = c
	return nil
}

func (r *memoryCourseRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return model.ErrCourseNotFound
	}
	delete(r.courses, id)
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
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string) error {
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

type noopThumbnails struct{}

func (noopThumbnails) Save(_ context.Context, name string, _ []byte, _ string) (string, string, error) {
	return name, "https://cdn.test/" + name, nil
}

func (noopThumbnails) Delete(context.Context, string) error { return nil }

type sessionMap map[uuid.UUID]model.User

func (s sessionMap) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type courseEnv struct {
	engine   *gin.Engine
	repo     *memoryCourseRepo
	sessions sessionMap
	tokens   *service_token.Issuer
}

func newCourseEnv(t *testing.T) *courseEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := service_token.New(service_token.Config{
		AccessSecret:     []byte("access-secret"),
		RefreshSecret:    []byte("refresh-secret"),
		ActivationSecret: []byte("activation-secret"),
		AccessTTL:        time.Minute,
	})
	sessions := make(sessionMap)
	repo := newMemoryCourseRepo()
	uc := usecase_course.New(repo, newMemoryCache(), noopThumbnails{})
	mw := http_auth_middleware.New(tokens, sessions)

	engine := gin.New()
	New(uc, mw).RegisterRoutes(engine.Group("/api/v1"))

	return &courseEnv{engine: engine, repo: repo, sessions: sessions, tokens: tokens}
}

// loginAs plants a session and mints an access cookie for the user.
func (e *courseEnv) loginAs(t *testing.T, role model.Role, courses ...uuid.UUID) (*http.Cookie, model.User) {
	t.Helper()
	user := model.User{
		ID:      uuid.New(),
		Name:    "Test User",
		Email:   uuid.NewString() + "@example.com",
		Role:    role,
		Courses: courses,
	}
	e.sessions[user.ID] = user

	token, err := e.tokens.IssueAccess(user.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: http_auth_middleware.AccessCookie, Value: token}, user
}

func (e *courseEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *courseEnv) seedCourse(t *testing.T) model.Course {
	t.Helper()
	course := model.Course{
		ID:          uuid.New(),
		Title:       "Go Fundamentals",
		Description: "from zero to production",
		Price:       29.99,
		Sections: []model.CourseSection{{
			ID:          uuid.New(),
			Title:       "Intro",
			VideoURL:    "https://videos.test/intro.mp4",
			VideoLength: 300,
			Suggestion:  "watch twice",
		}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.repo.Store(context.Background(), course))
	return course
}

func TestCreateCourseRequiresAdmin(t *testing.T) {
	env := newCourseEnv(t)
	payload := gin.H{"title": "New Course", "description": "d", "price": 10}

	t.Run("anonymous refused", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/courses", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		cookie, _ := env.loginAs(t, model.RoleUser)
		rec := env.do(t, http.MethodPost, "/api/v1/courses", payload, cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		cookie, _ := env.loginAs(t, model.RoleAdmin)
		rec := env.do(t, http.MethodPost, "/api/v1/courses", payload, cookie)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

func TestGetCourseStripsPremiumFields(t *testing.T) {
	env := newCourseEnv(t)
	course := env.seedCourse(t)

	rec := env.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Course CourseResponseDTO `json:"course"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Course.Sections, 1)
	assert.Equal(t, "Intro", body.Course.Sections[0].Title)
	assert.Empty(t, body.Course.Sections[0].VideoURL)
	assert.Empty(t, body.Course.Sections[0].Suggestion)
}

func TestGetCourseUnknownIDNotFound(t *testing.T) {
	env := newCourseEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/courses/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/courses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogListsCourses(t *testing.T) {
	env := newCourseEnv(t)
	env.seedCourse(t)
	env.seedCourse(t)

	rec := env.do(t, http.MethodGet, "/api/v1/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body CoursesListResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Courses, 2)
}

func TestCourseContentRequiresEnrollment(t *testing.T) {
	env := newCourseEnv(t)
	course := env.seedCourse(t)
	path := "/api/v1/courses/" + course.ID.String() + "/content"

	t.Run("not enrolled", func(t *testing.T) {
		cookie, _ := env.loginAs(t, model.RoleUser)
		rec := env.do(t, http.MethodGet, path, nil, cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enrolled sees premium fields", func(t *testing.T) {
		cookie, _ := env.loginAs(t, model.RoleUser, course.ID)
		rec := env.do(t, http.MethodGet, path, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Course CourseResponseDTO `json:"course"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Course.Sections, 1)
		assert.Equal(t, "https://videos.test/intro.mp4", body.Course.Sections[0].VideoURL)
	})
}

func TestUpdateCoursePartialBodyKeepsStoredFields(t *testing.T) {
	env := newCourseEnv(t)
	course := env.seedCourse(t)
	course.Rating = 4.5
	course.Purchased = 120
	require.NoError(t, env.repo.Update(context.Background(), course))

	cookie, _ := env.loginAs(t, model.RoleAdmin)
	rec := env.do(t, http.MethodPut, "/api/v1/courses/"+course.ID.String(),
		gin.H{"title": "Go Fundamentals, 2nd ed."}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := env.repo.LoadByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Fundamentals, 2nd ed.", stored.Title)
	assert.Equal(t, "from zero to production", stored.Description)
	assert.Len(t, stored.Sections, 1)
	assert.Equal(t, 4.5, stored.Rating)
	assert.Equal(t, 120, stored.Purchased)
}

func TestDeleteCourse(t *testing.T) {
	env := newCourseEnv(t)
	course := env.seedCourse(t)
	cookie, _ := env.loginAs(t, model.RoleAdmin)

	rec := env.do(t, http.MethodDelete, "/api/v1/courses/"+course.ID.String(), nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
