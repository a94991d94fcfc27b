package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/docstore"
)

// Result is the uniform outcome of every session operation. Operations never
// panic or propagate errors past the store boundary.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const RoleAdmin = "admin"

// Store tracks the current identity, its persisted profile and the derived
// admin flag. It follows the auth session's state changes and provisions a
// default profile for identities that have none.
type Store struct {
	svc          *authsvc.Service
	auth         *authsvc.Session
	docs         docstore.Store
	usersCol     string
	initialToken string
	log          zerolog.Logger
	now          func() time.Time

	mu      sync.Mutex
	current *authsvc.Identity
	profile map[string]any
	isAdmin bool
	loading bool
	authErr string
	unsub   func()
}

func New(svc *authsvc.Service, auth *authsvc.Session, docs docstore.Store, usersCol, initialToken string, log zerolog.Logger) *Store {
	return &Store{
		svc:          svc,
		auth:         auth,
		docs:         docs,
		usersCol:     usersCol,
		initialToken: initialToken,
		log:          log,
		now:          time.Now,
		loading:      true,
	}
}

// Start subscribes to auth-state changes and, when a one-time token was
// supplied and nobody is signed in yet, attempts a silent sign-in with it.
// Loading stays true until the first auth resolution, profile fetch included.
func (s *Store) Start(ctx context.Context) {
	s.unsub = s.auth.OnChange(func(ident *authsvc.Identity) {
		s.handleChange(ident)
	})

	if s.initialToken != "" && s.auth.Current() == nil {
		s.mu.Lock()
		s.loading = true
		s.mu.Unlock()
		if _, err := s.auth.SignInWithToken(ctx, s.initialToken); err != nil {
			s.log.Error().Err(err).Msg("initial token sign-in failed")
			s.mu.Lock()
			s.authErr = "Automatic login failed with provided token."
			s.loading = false
			s.mu.Unlock()
		}
	}
}

// Stop detaches from the auth session. The store itself is never torn down
// mid-session; identity changes replace its state wholesale.
func (s *Store) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

func (s *Store) handleChange(ident *authsvc.Identity) {
	s.mu.Lock()
	s.current = ident
	s.isAdmin = false
	s.profile = nil
	s.mu.Unlock()

	if ident == nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return
	}

	ctx := context.Background()
	doc, err := s.docs.GetOne(ctx, s.usersCol, ident.ID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		profile := map[string]any{
			"email":     ident.Email,
			"role":      "employee",
			"createdAt": docstore.Timestamp(s.now()),
		}
		if err := s.docs.CreateOrReplace(ctx, s.usersCol, ident.ID, profile); err != nil {
			s.log.Error().Err(err).Str("userId", ident.ID).Msg("default profile creation failed")
			s.setAuthError("Failed to load user profile. Please try again.")
			break
		}
		s.log.Warn().Str("userId", ident.ID).Msg("user profile not found, created default profile")
		s.setProfile(profile)
	case err != nil:
		s.log.Error().Err(err).Str("userId", ident.ID).Msg("profile fetch failed")
		s.setAuthError("Failed to load user profile. Please try again.")
	default:
		s.setProfile(doc.Data)
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) setProfile(profile map[string]any) {
	role, _ := profile["role"].(string)
	s.mu.Lock()
	s.profile = profile
	s.isAdmin = role == RoleAdmin
	s.mu.Unlock()
}

func (s *Store) setAuthError(msg string) {
	s.mu.Lock()
	s.authErr = msg
	s.mu.Unlock()
}

func (s *Store) Login(ctx context.Context, email, password string) Result {
	s.clearError()
	if _, err := s.auth.SignInWithPassword(ctx, email, password); err != nil {
		msg := loginMessage(err)
		s.setAuthError(msg)
		return Result{Error: msg}
	}
	return Result{Success: true}
}

func (s *Store) GuestLogin(ctx context.Context) Result {
	s.clearError()
	if _, err := s.auth.SignInAnonymously(ctx); err != nil {
		s.setAuthError(err.Error())
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

func (s *Store) Logout(ctx context.Context) Result {
	s.clearError()
	if err := s.auth.SignOut(ctx); err != nil {
		s.setAuthError(err.Error())
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

func (s *Store) RequestPasswordReset(ctx context.Context, email string) Result {
	s.clearError()
	if err := s.svc.SendPasswordReset(ctx, email); err != nil {
		msg := resetMessage(err)
		s.setAuthError(msg)
		return Result{Error: msg}
	}
	return Result{Success: true, Message: "Password reset email sent! Check your inbox."}
}

func (s *Store) Current() *authsvc.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	ident := *s.current
	return &ident
}

func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) AuthError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authErr
}

func (s *Store) Profile() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	clone := make(map[string]any, len(s.profile))
	for k, v := range s.profile {
		clone[k] = v
	}
	return clone
}

func (s *Store) clearError() {
	s.mu.Lock()
	s.authErr = ""
	s.mu.Unlock()
}

func loginMessage(err error) string {
	if errors.Is(err, authsvc.ErrInvalidCredentials) {
		return "Invalid email or password."
	}
	return "Login failed. Please try again."
}

func resetMessage(err error) string {
	if errors.Is(err, authsvc.ErrNotFound) {
		return "No account exists for that email address."
	}
	return "Failed to send password reset email. Please try again."
}
