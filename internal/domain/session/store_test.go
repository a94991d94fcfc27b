package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/docstore"
)

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _, _, _, _ string) error { return nil }

const usersCol = "apps/test/users"

func newFixture(t *testing.T) (*Store, *authsvc.Service, *docstore.Memory) {
	t.Helper()
	svc := authsvc.New(authsvc.NewMemoryRegistry(), "test-secret", nopMailer{}, "portal@example.com")
	docs := docstore.NewMemory()
	store := New(svc, svc.NewSession(), docs, usersCol, "", zerolog.Nop())
	return store, svc, docs
}

func TestLoginProvisionsDefaultProfile(t *testing.T) {
	store, svc, docs := newFixture(t)
	ctx := context.Background()
	ident, err := svc.CreateUser(ctx, "user@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	store.Start(ctx)
	defer store.Stop()

	res := store.Login(ctx, "user@example.com", "secret1")
	if !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}

	doc, err := docs.GetOne(ctx, usersCol, ident.ID)
	if err != nil {
		t.Fatalf("default profile not created: %v", err)
	}
	if doc.String("role") != "employee" || doc.String("email") != "user@example.com" {
		t.Fatalf("unexpected default profile: %+v", doc.Data)
	}
	if store.IsAdmin() {
		t.Fatal("default profile must not be admin")
	}
	if store.Loading() {
		t.Fatal("loading must clear after auth resolution")
	}
}

func TestLoginWithExistingAdminProfile(t *testing.T) {
	store, svc, docs := newFixture(t)
	ctx := context.Background()
	ident, err := svc.CreateUser(ctx, "boss@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	profile := map[string]any{"email": "boss@example.com", "role": "admin", "name": "Boss"}
	if err := docs.CreateOrReplace(ctx, usersCol, ident.ID, profile); err != nil {
		t.Fatalf("profile create failed: %v", err)
	}

	store.Start(ctx)
	defer store.Stop()

	if res := store.Login(ctx, "boss@example.com", "secret1"); !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}
	if !store.IsAdmin() {
		t.Fatal("admin role not derived from profile")
	}
	if got := store.Profile(); got["name"] != "Boss" {
		t.Fatalf("profile not exposed: %+v", got)
	}
}

func TestLoginFailureReturnsResult(t *testing.T) {
	store, _, _ := newFixture(t)
	ctx := context.Background()
	store.Start(ctx)
	defer store.Stop()

	res := store.Login(ctx, "nobody@example.com", "whatever")
	if res.Success {
		t.Fatal("login with unknown account must fail")
	}
	if res.Error != "Invalid email or password." {
		t.Fatalf("unexpected error message: %q", res.Error)
	}
	if store.AuthError() != "Invalid email or password." {
		t.Fatalf("auth error not recorded: %q", store.AuthError())
	}
	if store.Current() != nil {
		t.Fatal("failed login must leave nobody signed in")
	}
}

func TestGuestLoginProvisionsProfile(t *testing.T) {
	store, _, docs := newFixture(t)
	ctx := context.Background()
	store.Start(ctx)
	defer store.Stop()

	if res := store.GuestLogin(ctx); !res.Success {
		t.Fatalf("guest login failed: %s", res.Error)
	}
	ident := store.Current()
	if ident == nil || !ident.Anonymous {
		t.Fatalf("expected anonymous identity, got %+v", ident)
	}
	if _, err := docs.GetOne(ctx, usersCol, ident.ID); err != nil {
		t.Fatalf("guest profile not provisioned: %v", err)
	}
}

func TestLogoutClearsState(t *testing.T) {
	store, svc, _ := newFixture(t)
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, "user@example.com", "secret1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	store.Start(ctx)
	defer store.Stop()

	if res := store.Login(ctx, "user@example.com", "secret1"); !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}
	if res := store.Logout(ctx); !res.Success {
		t.Fatalf("logout failed: %s", res.Error)
	}
	if store.Current() != nil || store.IsAdmin() || store.Profile() != nil {
		t.Fatal("logout must clear identity, role and profile")
	}
}

func TestInitialTokenSignIn(t *testing.T) {
	svc := authsvc.New(authsvc.NewMemoryRegistry(), "test-secret", nopMailer{}, "portal@example.com")
	docs := docstore.NewMemory()
	ctx := context.Background()
	ident, err := svc.CreateUser(ctx, "user@example.com", "secret1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	token, err := svc.CustomToken(ident.ID, time.Minute)
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	store := New(svc, svc.NewSession(), docs, usersCol, token, zerolog.Nop())
	store.Start(ctx)
	defer store.Stop()

	current := store.Current()
	if current == nil || current.ID != ident.ID {
		t.Fatal("initial token did not sign the session in")
	}
	if store.AuthError() != "" {
		t.Fatalf("unexpected auth error: %q", store.AuthError())
	}
}

func TestInitialTokenFailure(t *testing.T) {
	svc := authsvc.New(authsvc.NewMemoryRegistry(), "test-secret", nopMailer{}, "portal@example.com")
	store := New(svc, svc.NewSession(), docstore.NewMemory(), usersCol, "bogus-token", zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	if store.Current() != nil {
		t.Fatal("bogus token must not sign anyone in")
	}
	if store.AuthError() != "Automatic login failed with provided token." {
		t.Fatalf("unexpected auth error: %q", store.AuthError())
	}
	if store.Loading() {
		t.Fatal("loading must clear after a failed token sign-in")
	}
}

func TestPasswordResetMessages(t *testing.T) {
	store, svc, _ := newFixture(t)
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, "user@example.com", "secret1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res := store.RequestPasswordReset(ctx, "user@example.com")
	if !res.Success || res.Message != "Password reset email sent! Check your inbox." {
		t.Fatalf("unexpected reset result: %+v", res)
	}

	res = store.RequestPasswordReset(ctx, "unknown@example.com")
	if res.Success || res.Error != "No account exists for that email address." {
		t.Fatalf("unexpected reset failure result: %+v", res)
	}
}
