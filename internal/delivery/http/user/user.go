package http_user

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
	usecase_user "github.com/vpetrakov/learnhub/core/internal/usecase/user"
)

const refreshCookie = "refresh_token"

// RegisterRequestDTO carries a pending registration
type RegisterRequestDTO struct {
	Name     string `json:"name" binding:"required" example:"Alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=4" example:"secret123"`
}

type RegisterResponseDTO struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ActivationToken string `json:"activation_token"`
	// ActivationCode is echoed only outside production.
	ActivationCode string `json:"activation_code,omitempty"`
}

type ActivateRequestDTO struct {
	ActivationToken string `json:"activation_token" binding:"required"`
	ActivationCode  string `json:"activation_code" binding:"required" example:"4521"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

type SocialAuthRequestDTO struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Avatar string `json:"avatar"`
}

type UpdateUserRequestDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdatePasswordRequestDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=4"`
}

type UpdateAvatarRequestDTO struct {
	// Avatar is the base64-encoded image body.
	Avatar      string `json:"avatar" binding:"required"`
	ContentType string `json:"content_type"`
}

type UserResponseDTO struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       string      `json:"role"`
	AvatarURL  string      `json:"avatar_url,omitempty"`
	IsVerified bool        `json:"is_verified"`
	Courses    []uuid.UUID `json:"courses"`
}

type AuthResponseDTO struct {
	Success     bool            `json:"success"`
	User        UserResponseDTO `json:"user"`
	AccessToken string          `json:"access_token"`
}

func ConvertFromUser(u model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		AvatarURL:  u.Avatar.URL,
		IsVerified: u.IsVerified,
		Courses:    u.Courses,
	}
}

type Controller struct {
	uc   *usecase_user.Usecase
	auth *http_auth_middleware.Middleware

	// secureCookies is forced on outside development.
	secureCookies bool
	accessTTL     time.Duration
	refreshTTL    time.Duration
	echoCode      bool

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	uc *usecase_user.Usecase,
	auth *http_auth_middleware.Middleware,
	secureCookies bool,
	echoActivationCode bool,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		uc:            uc,
		auth:          auth,
		secureCookies: secureCookies,
		echoCode:      echoActivationCode,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", c.register)
	router.POST("/activate-user", c.activate)
	router.POST("/login", c.login)
	router.POST("/social-auth", c.socialAuth)
	router.GET("/refresh-token", c.refresh)

	router.GET("/logout", c.auth.AuthRequired(), c.logout)
	router.GET("/me", c.auth.AuthRequired(), c.me)
	router.PUT("/update-user", c.auth.AuthRequired(), c.updateInfo)
	router.PUT("/update-password", c.auth.AuthRequired(), c.updatePassword)
	router.PUT("/update-user-avatar", c.auth.AuthRequired(), c.updateAvatar)
}

// setTokenCookies installs the pair on the client. Both cookies are
// httpOnly and sameSite=lax; secure outside development.
func (c *Controller) setTokenCookies(ctx *gin.Context, pair usecase_user.TokenPair) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(http_auth_middleware.AccessCookie, pair.Access,
		int(c.accessTTL.Seconds()), "/", "", c.secureCookies, true)
	ctx.SetCookie(refreshCookie, pair.Refresh,
		int(c.refreshTTL.Seconds()), "/", "", c.secureCookies, true)
}

func (c *Controller) clearTokenCookies(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(http_auth_middleware.AccessCookie, "", -1, "/", "", c.secureCookies, true)
	ctx.SetCookie(refreshCookie, "", -1, "/", "", c.secureCookies, true)
}

// @Summary Register a new user
// @Description Issues an activation token and mails a one-time code; the account is created on activation
// @Tags User operations
// @Accept json
// @Produce json
// @Param request body RegisterRequestDTO true "Registration data"
// @Success 200 {object} RegisterResponseDTO
// @Failure 400 {object} http_common.ErrorResponse "Invalid request or email taken"
// @Router /register [post]
func (c *Controller) register(ctx *gin.Context) {
	var req RegisterRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	token, code, err := c.uc.Register(ctx.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase_user.ErrEmailTaken) {
			ctx.JSON(http.StatusBadRequest, http_common.NewError("user already exists"))
			return
		}
		c.logger.Error("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not register user"))
		return
	}

	resp := RegisterResponseDTO{
		Success:         true,
		Message:         "please check " + req.Email + " for the activation code",
		ActivationToken: token,
	}
	if c.echoCode {
		resp.ActivationCode = code
	}
	ctx.JSON(http.StatusOK, resp)
}

// @Summary Activate a registered user
// @Tags User operations
// @Accept json
// @Produce json
// @Param request body ActivateRequestDTO true "Activation token and code"
// @Success 201 {object} AuthResponseDTO
// @Failure 400 {object} http_common.ErrorResponse
// @Router /activate-user [post]
func (c *Controller) activate(ctx *gin.Context) {
	var req ActivateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	user, err := c.uc.Activate(ctx.Request.Context(), req.ActivationToken, req.ActivationCode)
	if err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrInvalidActivation):
			ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid activation token or code"))
		case errors.Is(err, usecase_user.ErrEmailTaken):
			ctx.JSON(http.StatusBadRequest, http_common.NewError("email already exists"))
		default:
			c.logger.Error("activation failed", slog.String("error", err.Error()))
			ctx.JSON(http.StatusBadRequest, http_common.NewError("could not activate user"))
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    ConvertFromUser(user),
	})
}

// @Summary Login with email and password
// @Tags User operations
// @Accept json
// @Produce json
// @Param request body LoginRequestDTO true "Credentials"
// @Success 200 {object} AuthResponseDTO
// @Failure 401 {object} http_common.ErrorResponse "Invalid credentials"
// @Router /login [post]
func (c *Controller) login(ctx *gin.Context) {
	var req LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("please provide email and password"))
		return
	}

	user, pair, err := c.uc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase_user.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, http_common.NewError("invalid credentials"))
			return
		}
		c.logger.Error("login failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not login"))
		return
	}

	c.setTokenCookies(ctx, pair)
	ctx.JSON(http.StatusOK, AuthResponseDTO{
		Success:     true,
		User:        ConvertFromUser(user),
		AccessToken: pair.Access,
	})
}

// @Summary Login or register through a social provider
// @Tags User operations
// @Router /social-auth [post]
func (c *Controller) socialAuth(ctx *gin.Context) {
	var req SocialAuthRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	user, pair, created, err := c.uc.SocialAuth(ctx.Request.Context(), req.Name, req.Email, req.Avatar)
	if err != nil {
		c.logger.Error("social auth failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not authenticate"))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.setTokenCookies(ctx, pair)
	ctx.JSON(status, AuthResponseDTO{
		Success:     true,
		User:        ConvertFromUser(user),
		AccessToken: pair.Access,
	})
}

// @Summary Rotate the token pair using the refresh token cookie
// @Description All failures share one generic message so token validity cannot be probed
// @Tags User operations
// @Produce json
// @Success 200 {object} AuthResponseDTO
// @Failure 400 {object} http_common.ErrorResponse "could not refresh token"
// @Router /refresh-token [get]
func (c *Controller) refresh(ctx *gin.Context) {
	token, err := ctx.Cookie(refreshCookie)
	if err != nil || token == "" {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not refresh token"))
		return
	}

	user, pair, err := c.uc.Refresh(ctx.Request.Context(), token)
	if err != nil {
		if errors.Is(err, usecase_user.ErrCouldNotRefresh) {
			ctx.JSON(http.StatusBadRequest, http_common.NewError("could not refresh token"))
			return
		}
		c.logger.Error("refresh failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.NewError("internal error"))
		return
	}

	c.setTokenCookies(ctx, pair)
	ctx.JSON(http.StatusOK, AuthResponseDTO{
		Success:     true,
		User:        ConvertFromUser(user),
		AccessToken: pair.Access,
	})
}

// @Summary Logout the current user
// @Tags User operations
// @Router /logout [get]
func (c *Controller) logout(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	c.clearTokenCookies(ctx)
	// Session deletion must not hold the response back.
	c.uc.Logout(principal)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "logged out successfully",
	})
}

// @Summary Current user profile
// @Tags User operations
// @Router /me [get]
func (c *Controller) me(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    ConvertFromUser(principal),
	})
}

func (c *Controller) updateInfo(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	var req UpdateUserRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	user, err := c.uc.UpdateInfo(ctx.Request.Context(), principal.ID, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrEmailTaken):
			ctx.JSON(http.StatusBadRequest, http_common.NewError("email already exists"))
		case errors.Is(err, model.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, http_common.NewError("user not found"))
		default:
			c.logger.Error("update user failed", slog.String("error", err.Error()))
			ctx.JSON(http.StatusBadRequest, http_common.NewError("could not update user"))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    ConvertFromUser(user),
	})
}

func (c *Controller) updatePassword(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	var req UpdatePasswordRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("please provide old and new password"))
		return
	}

	user, err := c.uc.UpdatePassword(ctx.Request.Context(), principal.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, usecase_user.ErrInvalidCredentials) {
			ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid old password"))
			return
		}
		c.logger.Error("update password failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not update password"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    ConvertFromUser(user),
	})
}

func (c *Controller) updateAvatar(ctx *gin.Context) {
	principal, ok := http_auth_middleware.PrincipalFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, http_common.NewError("please login to access this resource"))
		return
	}

	var req UpdateAvatarRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("invalid request body"))
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Avatar)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.NewError("avatar must be base64 encoded"))
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	user, err := c.uc.UpdateAvatar(ctx.Request.Context(), principal.ID, data, contentType)
	if err != nil {
		c.logger.Error("update avatar failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadRequest, http_common.NewError("could not update avatar"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    ConvertFromUser(user),
	})
}
