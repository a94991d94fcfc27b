package authsvc

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is one signed-in context. State changes fan out to OnChange
// listeners; listeners fire immediately on registration with the current
// state, matching the auth provider's subscription contract.
type Session struct {
	svc *Service

	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	ident := *s.current
	return &ident
}

// OnChange registers a listener for auth-state transitions and returns its
// unsubscribe function. The listener is invoked once immediately.
func (s *Session) OnChange(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(copyIdentity(current))
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	ident, err := s.svc.verifyPassword(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	s.set(&ident)
	return ident, nil
}

func (s *Session) SignInAnonymously(_ context.Context) (Identity, error) {
	ident := Identity{ID: uuid.NewString(), Anonymous: true}
	s.set(&ident)
	return ident, nil
}

func (s *Session) SignInWithToken(ctx context.Context, token string) (Identity, error) {
	claims, err := ParseToken(s.svc.secret, token)
	if err != nil {
		return Identity{}, err
	}
	if claims.Purpose != PurposeSignIn {
		return Identity{}, ErrInvalidToken
	}
	acct, err := s.svc.registry.ByID(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	ident := identityOf(acct)
	s.set(&ident)
	return ident, nil
}

// SignUp registers a new identity and signs this session in as it. Used by
// the secondary session during employee creation.
func (s *Session) SignUp(ctx context.Context, email, password string) (Identity, error) {
	ident, err := s.svc.CreateUser(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	s.set(&ident)
	return ident, nil
}

func (s *Session) SignOut(_ context.Context) error {
	s.set(nil)
	return nil
}

func (s *Session) set(ident *Identity) {
	s.mu.Lock()
	s.current = copyIdentity(ident)
	fns := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(ident))
	}
}

func copyIdentity(ident *Identity) *Identity {
	if ident == nil {
		return nil
	}
	clone := *ident
	return &clone
}
