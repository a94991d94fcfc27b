package authsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("authsvc: invalid email or password")
	ErrEmailInUse         = errors.New("authsvc: email already in use")
	ErrWeakPassword       = errors.New("authsvc: password too weak")
	ErrInvalidToken       = errors.New("authsvc: invalid or expired token")
	ErrNotFound           = errors.New("authsvc: identity not found")
)

const minPasswordLen = 6

// Identity is an authenticated principal.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	Anonymous   bool
}

// Account is the persisted registry row behind an identity.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
}

type Registry interface {
	Insert(ctx context.Context, acct Account) error
	ByEmail(ctx context.Context, email string) (Account, error)
	ByID(ctx context.Context, id string) (Account, error)
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service is the authentication provider. It owns the identity registry and
// mints sessions; each Session is an independent signed-in context, so a
// secondary session can register a new identity without disturbing the
// primary one.
type Service struct {
	registry Registry
	secret   string
	mailer   Mailer
	from     string
}

func New(registry Registry, secret string, mailer Mailer, from string) *Service {
	return &Service{registry: registry, secret: secret, mailer: mailer, from: from}
}

func (s *Service) NewSession() *Session {
	return &Session{svc: s, listeners: make(map[int]func(*Identity))}
}

// CreateUser registers a new identity without signing any session in.
func (s *Service) CreateUser(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return Identity{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}
	acct := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.registry.Insert(ctx, acct); err != nil {
		return Identity{}, err
	}
	return identityOf(acct), nil
}

func (s *Service) verifyPassword(ctx context.Context, email, password string) (Identity, error) {
	acct, err := s.registry.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return identityOf(acct), nil
}

// SendPasswordReset mails a one-time reset token to a registered address.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	acct, err := s.registry.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	token, err := GenerateToken(s.secret, acct.ID, PurposeReset, time.Hour)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Use this token to reset your portal password:\r\n\r\n%s\r\n", token)
	return s.mailer.Send(ctx, s.from, acct.Email, "Reset your password", body)
}

// CustomToken mints a one-time sign-in token for the given identity.
func (s *Service) CustomToken(userID string, ttl time.Duration) (string, error) {
	return GenerateToken(s.secret, userID, PurposeSignIn, ttl)
}

// SessionToken mints an API bearer token for the given identity.
func (s *Service) SessionToken(userID string, ttl time.Duration) (string, error) {
	return GenerateToken(s.secret, userID, PurposeSession, ttl)
}

// ParseSessionToken validates an API bearer token and returns the identity id.
func (s *Service) ParseSessionToken(token string) (string, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return "", err
	}
	if claims.Purpose != PurposeSession {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// IdentityByID resolves a registered identity. Anonymous identities have no
// registry row and come back as ErrNotFound.
func (s *Service) IdentityByID(ctx context.Context, id string) (Identity, error) {
	acct, err := s.registry.ByID(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	return identityOf(acct), nil
}

func identityOf(acct Account) Identity {
	return Identity{ID: acct.ID, Email: acct.Email, DisplayName: acct.DisplayName}
}
