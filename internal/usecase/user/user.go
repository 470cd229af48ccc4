package usecase_user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vpetrakov/learnhub/core/internal/model"
	service_token "github.com/vpetrakov/learnhub/core/internal/service/token"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidActivation  = errors.New("invalid activation token or code")
	ErrCouldNotRefresh    = errors.New("could not refresh token")
	ErrFailedToSendMail   = errors.New("failed to send activation mail")
	ErrFailedToStore      = errors.New("failed to store user")
	ErrFailedToSession    = errors.New("failed to store session")
)

type Repository interface {
	Store(ctx context.Context, u model.User) error
	LoadByID(ctx context.Context, ID uuid.UUID) (model.User, error)
	LoadByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, u model.User) error
}

// SessionStore is the side-channel source of truth for "is this
// session still valid". Absence of an entry invalidates an otherwise
// well-signed refresh token.
type SessionStore interface {
	Put(ctx context.Context, u model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenIssuer interface {
	IssueAccess(userID uuid.UUID) (string, error)
	IssueRefresh(userID uuid.UUID) (string, error)
	VerifyRefresh(token string) (uuid.UUID, error)
	IssueActivation(payload service_token.RegistrationPayload) (token string, code string, err error)
	VerifyActivation(token string, code string) (service_token.RegistrationPayload, error)
}

type Mailer interface {
	SendActivationMail(to string, name string, code string) error
}

type AvatarStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (key string, url string, err error)
	Delete(ctx context.Context, key string) error
}

type TokenPair struct {
	Access  string
	Refresh string
}

type Usecase struct {
	repository Repository
	sessions   SessionStore
	tokens     TokenIssuer
	mailer     Mailer
	avatars    AvatarStorage

	logger *slog.Logger
}

type UsecaseOption func(*Usecase)

func WithLogger(logger *slog.Logger) UsecaseOption {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func New(
	repository Repository,
	sessions SessionStore,
	tokens TokenIssuer,
	mailer Mailer,
	avatars AvatarStorage,
	opts ...UsecaseOption,
) *Usecase {
	u := &Usecase{
		repository: repository,
		sessions:   sessions,
		tokens:     tokens,
		mailer:     mailer,
		avatars:    avatars,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Register does not create the account. It issues an activation token
// carrying the registration payload plus a one-time code, and mails the
// code; the account exists only once Activate sees both match.
func (u *Usecase) Register(ctx context.Context, name, email, password string) (token string, code string, err error) {
	if _, err := u.repository.LoadByEmail(ctx, email); err == nil {
		return "", "", ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return "", "", fmt.Errorf("failed to check email: %w", err)
	}

	token, code, err = u.tokens.IssueActivation(service_token.RegistrationPayload{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to issue activation token: %w", err)
	}

	if err := u.mailer.SendActivationMail(email, name, code); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrFailedToSendMail, err)
	}

	return token, code, nil
}

func (u *Usecase) Activate(ctx context.Context, token, code string) (model.User, error) {
	payload, err := u.tokens.VerifyActivation(token, code)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", ErrInvalidActivation, err)
	}

	if _, err := u.repository.LoadByEmail(ctx, payload.Email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsVerified:   true,
		Courses:      []uuid.UUID{},
		CreatedAt:    time.Now(),
	}

	if err := u.repository.Store(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("%w: %w", ErrFailedToStore, err)
	}

	return user, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	user, err := u.repository.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, fmt.Errorf("failed to load user: %w", err)
	}

	// Social-auth accounts have no password and cannot use this flow.
	if user.PasswordHash == "" {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := u.startSession(ctx, user)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// SocialAuth creates the account on first sight of the email and logs
// in either way. Provider identity verification happens upstream.
func (u *Usecase) SocialAuth(ctx context.Context, name, email, avatarURL string) (model.User, TokenPair, bool, error) {
	user, err := u.repository.LoadByEmail(ctx, email)
	created := false
	if errors.Is(err, model.ErrUserNotFound) {
		user = model.User{
			ID:         uuid.New(),
			Name:       name,
			Email:      email,
			Role:       model.RoleUser,
			Avatar:     model.Avatar{URL: avatarURL},
			IsVerified: true,
			Courses:    []uuid.UUID{},
			CreatedAt:  time.Now(),
		}
		if err := u.repository.Store(ctx, user); err != nil {
			return model.User{}, TokenPair{}, false, fmt.Errorf("%w: %w", ErrFailedToStore, err)
		}
		created = true
	} else if err != nil {
		return model.User{}, TokenPair{}, false, fmt.Errorf("failed to load user: %w", err)
	}

	pair, err := u.startSession(ctx, user)
	if err != nil {
		return model.User{}, TokenPair{}, false, err
	}
	return user, pair, created, nil
}

// Refresh rotates the token pair. Every failure collapses into
// ErrCouldNotRefresh so callers cannot distinguish a forged token from
// an expired one or a dead session.
func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (model.User, TokenPair, error) {
	userID, err := u.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return model.User{}, TokenPair{}, ErrCouldNotRefresh
	}

	snapshot, err := u.sessions.Get(ctx, userID)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to load session: %w", err)
	}
	if snapshot == nil {
		return model.User{}, TokenPair{}, ErrCouldNotRefresh
	}

	pair, err := u.startSession(ctx, *snapshot)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return *snapshot, pair, nil
}

// Logout removes the session without blocking the caller. A leftover
// entry keeps the refresh token alive, so failures are logged loudly
// even though the user-facing request already succeeded.
func (u *Usecase) Logout(user model.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.sessions.Delete(ctx, user.ID); err != nil {
			u.logger.Error("failed to delete session on logout, entry leaked",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (u *Usecase) UpdateInfo(ctx context.Context, userID uuid.UUID, name, email string) (model.User, error) {
	user, err := u.repository.LoadByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if email != "" && email != user.Email {
		if _, err := u.repository.LoadByEmail(ctx, email); err == nil {
			return model.User{}, ErrEmailTaken
		} else if !errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}

	return user, u.saveAndResnapshot(ctx, user)
}

func (u *Usecase) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (model.User, error) {
	user, err := u.repository.LoadByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if user.PasswordHash == "" {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	return user, u.saveAndResnapshot(ctx, user)
}

func (u *Usecase) UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (model.User, error) {
	user, err := u.repository.LoadByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Avatar.Key != "" {
		if err := u.avatars.Delete(ctx, user.Avatar.Key); err != nil {
			u.logger.Warn("failed to delete previous avatar",
				slog.String("key", user.Avatar.Key),
				slog.String("error", err.Error()),
			)
		}
	}

	key, url, err := u.avatars.Save(ctx, "avatars/"+uuid.NewString(), data, contentType)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upload avatar: %w", err)
	}
	user.Avatar = model.Avatar{Key: key, URL: url}

	return user, u.saveAndResnapshot(ctx, user)
}

// saveAndResnapshot persists the user and refreshes the session copy so
// the Auth Gate sees the change on the next request.
func (u *Usecase) saveAndResnapshot(ctx context.Context, user model.User) error {
	if err := u.repository.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %w", ErrFailedToStore, err)
	}
	if err := u.sessions.Put(ctx, user); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSession, err)
	}
	return nil
}

func (u *Usecase) startSession(ctx context.Context, user model.User) (TokenPair, error) {
	if err := u.sessions.Put(ctx, user); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrFailedToSession, err)
	}

	access, err := u.tokens.IssueAccess(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := u.tokens.IssueRefresh(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}
