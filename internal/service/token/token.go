package service_token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired means the token was well-formed and correctly
	// signed but its lifetime has elapsed. Callers treat this
	// differently from ErrTokenInvalid: an expired access token sends
	// the client into the refresh flow.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, wrong signing methods
	// and forged signatures.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrActivationCodeMismatch means the token verified but the code
	// the client supplied does not match the embedded one.
	ErrActivationCodeMismatch = errors.New("activation code mismatch")
)

const (
	DefaultAccessTTL     = 5 * time.Minute
	DefaultRefreshTTL    = 3 * 24 * time.Hour
	DefaultActivationTTL = 5 * time.Minute
)

type Config struct {
	AccessSecret     []byte
	RefreshSecret    []byte
	ActivationSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ActivationTTL    time.Duration
}

// Issuer mints and verifies the three token kinds used by the service.
// All tokens are stateless HS256 JWTs; verification needs only the
// matching secret.
type Issuer struct {
	cfg Config
}

func New(cfg Config) *Issuer {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.ActivationTTL == 0 {
		cfg.ActivationTTL = DefaultActivationTTL
	}
	return &Issuer{cfg: cfg}
}

type subjectClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

func (i *Issuer) IssueAccess(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

func (i *Issuer) IssueRefresh(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

func (i *Issuer) VerifyAccess(token string) (uuid.UUID, error) {
	return i.verify(token, i.cfg.AccessSecret)
}

func (i *Issuer) VerifyRefresh(token string) (uuid.UUID, error) {
	return i.verify(token, i.cfg.RefreshSecret)
}

func (i *Issuer) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := subjectClaims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (i *Issuer) verify(token string, secret []byte) (uuid.UUID, error) {
	var claims subjectClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// RegistrationPayload is the pending-user data carried inside an
// activation token instead of being persisted server-side.
type RegistrationPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type activationClaims struct {
	User RegistrationPayload `json:"user"`
	Code string              `json:"activation_code"`
	jwt.RegisteredClaims
}

// IssueActivation signs the registration payload together with a random
// 4-digit code. The account is created only when the client echoes the
// code back alongside the token.
func (i *Issuer) IssueActivation(payload RegistrationPayload) (token string, code string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate activation code: %w", err)
	}
	code = fmt.Sprintf("%04d", n.Int64())

	now := time.Now()
	claims := activationClaims{
		User: payload,
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.ActivationTTL)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.ActivationSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign activation token: %w", err)
	}
	return token, code, nil
}

func (i *Issuer) VerifyActivation(token string, code string) (RegistrationPayload, error) {
	var claims activationClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return i.cfg.ActivationSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return RegistrationPayload{}, ErrTokenExpired
		}
		return RegistrationPayload{}, ErrTokenInvalid
	}

	if claims.Code != code {
		return RegistrationPayload{}, ErrActivationCodeMismatch
	}
	return claims.User, nil
}
