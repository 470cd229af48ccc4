package http_course

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/vpetrakov/learnhub/core/internal/delivery/http/common"
	http_auth_middleware "github.com/vpetrakov/learnhub/core/internal/delivery/http/middleware/auth"
	"github.com/vpetrakov/learnhub/core/internal/model"
	usecase_course "github.com/vpetrakov/learnhub/core/internal/usecase/course"
)

type SectionDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title" example:"Introduction"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url,omitempty"`
	VideoLength int       `json:"video_length" example:"300"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

type CreateCourseRequestDTO struct {
	Title          string       `json:"title" binding:"required" example:"Go for Backend Engineers"`
	Description    string       `json:"description" binding:"required"`
	Price          float64      `json:"price" binding:"required" example:"49.99"`
	EstimatedPrice float64      `json:"estimated_price" example:"79.99"`
	Tags           []string     `json:"tags" example:"go,backend"`
	Level          string       `json:"level" example:"beginner"`
	Benefits       []string     `json:"benefits"`
	Sections       []SectionDTO `json:"sections"`
	// Thumbnail is the base64-encoded image body, uploaded to object
	// storage before the course is persisted.
	Thumbnail   string `json:"thumbnail,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type UpdateCourseRequestDTO struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Price          float64      `json:"price"`
	EstimatedPrice float64      `json:"estimated_price"`
	Tags           []string     `json:"tags"`
	Level          string       `json:"level"`
	Benefits       []string     `json:"benefits"`
	Sections       []SectionDTO `json:"sections"`
	Thumbnail      string       `json:"thumbnail,omitempty"`
	ContentType    string       `json:"content_type,omitempty"`
}

type CourseResponseDTO struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Price          float64      `json:"price"`
	EstimatedPrice float64      `json:"estimated_price"`
	Tags           []string     `json:"tags"`
	Level          string       `json:"level"`
	ThumbnailURL   string       `json:"thumbnail_url,omitempty"`
	Benefits       []string     `json:"benefits"`
	Sections       []SectionDTO `json:"sections"`
	Rating         float64      `json:"rating"`
	Purchased      int          `json:"purchased"`
}

type CoursesListResponseDTO struct {
	Success bool                `json:"success"`
	Courses []CourseResponseDTO `json:"courses"`
	Total   int                 `json:"total"`
}

func convertSections(dtos []SectionDTO) []model.CourseSection {
	sections := make([]model.CourseSection, len(dtos))
	for i, s := range dtos {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		sections[i] = model.CourseSection{
			ID:          id,
			Title:       s.Title,
			Description: s.Description,
			VideoURL:    s.VideoURL,
			VideoLength: s.VideoLength,
			Suggestion:  s.Suggestion,
		}
	}
	return sections
}

func (r *CreateCourseRequestDTO) ConvertToCourse() model.Course {
	return model.Course{
		ID:             uuid.New(),
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		EstimatedPrice: r.EstimatedPrice,
		Tags:           r.Tags,
		Level:          r.Level,
		Benefits:       r.Benefits,
		Sections:       convertSections(r.Sections),
		CreatedAt:      time.Now(),
	}
}

func (r *UpdateCourseRequestDTO) ConvertToCourse(id uuid.UUID) model.Course {
	return model.Course{
		ID:             id,
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		EstimatedPrice: r.EstimatedPrice,
		Tags:           r.Tags,
		Level:          r.Level,
		Benefits:       r.Benefits,
		Sections:       convertSections(r.Sections),
	}
}

func ConvertFromCourse(c model.Course) CourseResponseDTO {
	sections := make([]SectionDTO, len(c.Sections))
	for i, s := range c.Sections {
		sections[i] = SectionDTO{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			VideoURL:    s.VideoURL,
			VideoLength: s.VideoLength,
			Suggestion:  s.Suggestion,
		}
	}
	return CourseResponseDTO{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		EstimatedPrice: c.EstimatedPrice,
		Tags:           c.Tags,
		Level:          c.Level,
		ThumbnailURL:   c.Thumbnail.URL,
		Benefits:       c.Benefits,
		Sections:       sections,
		Rating:         c.Rating,
		Purchased:      c.Purchased,
	}
}

func ConvertFromCourseList(courses []model.Course) []CourseResponseDTO {
	out := make([]CourseResponseDTO, len(courses))
	for i, c := range courses {
		out[i] = ConvertFromCourse(c)
	}
	return out
}

type Controller struct {
	uc   *usecase_course.Usecase
	auth *http_auth_middleware.Middleware

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_course.Usecase, auth *http_auth_middleware.Middleware, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		auth:   auth,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	courses := router.Group("/courses")

	courses.GET("", c.getCourses)
	courses.GET("/:course_id", c.getCourse)
	courses.GET("/:course_id/content", c.auth.AuthRequired(), c.getCourseContent)

	admin := courses.Group("", c.auth.AuthRequired(), c.auth.RequireRoles(model.RoleAdmin))
	admin.POST("", c.createCourse)
	admin.PUT("/:course_id", c.updateCourse)
	admin.DELETE("/:course_id", c.deleteCourse)
}

// @Summary Create a course
// @Tags Course operations
// @Accept json
// @Produce json
// @Param request body CreateCourseRequestDTO true "Course data"
// @Success 201 {object} CourseResponseDTO
// @Failure 400 {object} http_common.ErrorResponse
// @Failure 403 {object} http_common.ErrorResponse "Admin role required"
// @Router /courses [post]
func (c *Controller) createCourse(ctx *gin.Context) {
	var req CreateCourseRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	thumbnail, contentType, ok := decodeThumbnail(ctx, req.Thumbnail, req.ContentType)
	if !ok {
		return
	}

	course, err := c.uc.Create(ctx.Request.Context(), req.ConvertToCourse(), thumbnail, contentType)
	if err != nil {
		if errors.Is(err, usecase_course.ErrInvalidInput) {
			ctx.JSON(http.StatusBadRequest, http_common.NewError(err.Error()))
			return
		}
		c.logger.Error("failed to create course",
			slog.String("title", req.Title),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not create course"))
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"course":  ConvertFromCourse(course),
	})
}

// @Summary Update a course
// @Tags Course operations
// @Router /courses/{course_id} [put]
func (c *Controller) updateCourse(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	var req UpdateCourseRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	thumbnail, contentType, ok := decodeThumbnail(ctx, req.Thumbnail, req.ContentType)
	if !ok {
		return
	}

	course, err := c.uc.Update(ctx.Request.Context(), req.ConvertToCourse(courseID), thumbnail, contentType)
	if err != nil {
		if errors.Is(err, model.ErrCourseNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.NewError("course not found"))
			return
		}
		c.logger.Error("failed to update course",
			slog.String("course_id", courseID.String()),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not update course"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"course":  ConvertFromCourse(course),
	})
}

// @Summary Delete a course
// @Tags Course operations
// @Router /courses/{course_id} [delete]
func (c *Controller) deleteCourse(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	if err := c.uc.Delete(ctx.Request.Context(), courseID); err != nil {
		if errors.Is(err, model.ErrCourseNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.NewError("course not found"))
			return
		}
		c.logger.Error("failed to delete course",
			slog.String("course_id", courseID.String()),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not delete course"))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// @Summary Get a single course (public view)
// @Description Served through the read-through cache; premium fields are stripped
// @Tags Course operations
// @Produce json
// @Param course_id path string true "Course UUID"
// @Success 200 {object} CourseResponseDTO
// @Failure 404 {object} http_common.ErrorResponse
// @Router /courses/{course_id} [get]
func (c *Controller) getCourse(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	course, err := c.uc.GetByID(ctx.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, model.ErrCourseNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.NewError("course not found"))
			return
		}
		c.logger.Error("failed to load course",
			slog.String("course_id", courseID.String()),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusInternalServerError, http_common.NewError("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"course":  ConvertFromCourse(course),
	})
}

// @Summary Get the course catalog (public view)
// @Tags Course operations
// @Produce json
// @Success 200 {object} CoursesListResponseDTO
// @Router /courses [get]
func (c *Controller) getCourses(ctx *gin.Context) {
	courses, err := c.uc.List(ctx.Request.Context())
	if err != nil {
		c.logger.Error("failed to load catalog", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.NewError("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, CoursesListResponseDTO{
		Success: true,
		Courses: ConvertFromCourseList(courses),
		Total:   len(courses),
	})
}

// @Summary Get full course content for an enrolled user
// @Tags Course operations
// @Router /courses/{course_id}/content [get]
func (c *Controller) getCourseContent(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	course, err := c.uc.GetContent(ctx.Request.Context(), principal, courseID)
	if err != nil {
		switch {
		case errors.Is(err, usecase_course.ErrNotEligible):
			ctx.JSON(http.StatusNotFound, http_common.NewError("you are not eligible to access this course"))
		case errors.Is(err, model.ErrCourseNotFound):
			ctx.JSON(http.StatusNotFound, http_common.NewError("course not found"))
		default:
			c.logger.Error("failed to load course content",
				slog.String("course_id", courseID.String()),
				slog.String("error", err.Error()),
			)
			ctx.JSON(http.StatusInternalServerError, http_common.NewError("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"course":  ConvertFromCourse(course),
	})
}

func parseCourseID(ctx *gin.Context) (uuid.UUID, bool) {
	idParam := ctx.Param("course_id")
	courseID, err := uuid.Parse(idParam)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid course id"))
		return uuid.Nil, false
	}
	return courseID, true
}

func decodeThumbnail(ctx *gin.Context, encoded, contentType string) ([]byte, string, bool) {
	if encoded == "" {
		return nil, "", true
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("thumbnail must be base64 encoded"))
		return nil, "", false
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, true
}
