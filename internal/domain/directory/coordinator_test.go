package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/docstore"
)

const usersCol = "apps/test/users"

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _, _, _, _ string) error { return nil }

// failingStore wraps the memory store and fails profile writes on demand.
type failingStore struct {
	*docstore.Memory
	failCreate bool
}

func (f *failingStore) CreateOrReplace(ctx context.Context, collection, id string, data map[string]any) error {
	if f.failCreate {
		return errors.New("write refused")
	}
	return f.Memory.CreateOrReplace(ctx, collection, id, data)
}

func newCoordinatorFixture() (*Coordinator, *failingStore, *authsvc.Service) {
	store := &failingStore{Memory: docstore.NewMemory()}
	svc := authsvc.New(authsvc.NewMemoryRegistry(), "test-secret", nopMailer{}, "portal@example.com")
	return NewCoordinator(store, svc, usersCol, zerolog.Nop()), store, svc
}

func newEmployeeForm() *Form {
	f := filledForm(validFields(), nil)
	f.SetPassword("secret1")
	return f
}

func TestCreateHappyPath(t *testing.T) {
	ctx := context.Background()
	c, store, svc := newCoordinatorFixture()
	form := newEmployeeForm()

	pending, err := c.StageCreate(form, nil)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	id, err := pending.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if c.Stage() != StageDone {
		t.Fatalf("expected StageDone, got %v", c.Stage())
	}
	if !c.FormVisible() {
		t.Fatal("form must be visible again after success")
	}

	doc, err := store.GetOne(ctx, usersCol, id)
	if err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
	if doc.String("employeeId") != "E100" {
		t.Fatalf("unexpected profile: %+v", doc.Data)
	}
	if _, ok := doc.Data["password"]; ok {
		t.Fatal("password leaked into profile document")
	}

	// The new login works and the document id matches the identity id.
	sess := svc.NewSession()
	ident, err := sess.SignInWithPassword(ctx, "asha@example.com", "secret1")
	if err != nil {
		t.Fatalf("new employee cannot sign in: %v", err)
	}
	if ident.ID != id {
		t.Fatalf("profile id %s does not match identity id %s", id, ident.ID)
	}

	if form.Editing() != nil || form.Field("name") != "" {
		t.Fatal("form must reset after a successful create")
	}
}

func TestStageCreateValidationFailure(t *testing.T) {
	c, _, _ := newCoordinatorFixture()
	form := NewForm()

	if _, err := c.StageCreate(form, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if c.Stage() != StageIdle {
		t.Fatalf("validation failure must return to idle, got %v", c.Stage())
	}
	if len(form.Errors()) == 0 {
		t.Fatal("form must keep its field errors")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	c, _, svc := newCoordinatorFixture()
	if _, err := svc.CreateUser(ctx, "asha@example.com", "othersecret"); err != nil {
		t.Fatalf("seed identity failed: %v", err)
	}

	form := newEmployeeForm()
	pending, err := c.StageCreate(form, nil)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	if _, err := pending.Confirm(ctx); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if !c.FormVisible() {
		t.Fatal("form must reappear after a failed confirm")
	}
	if c.Stage() != StageIdle {
		t.Fatalf("expected idle after identity failure, got %v", c.Stage())
	}
	if form.Field("name") == "" {
		t.Fatal("draft must survive a failed confirm")
	}
	if UserMessage(ErrEmailInUse) != "The email address is already in use by another account." {
		t.Fatalf("wrong message: %q", UserMessage(ErrEmailInUse))
	}
}

func TestCreateWeakPassword(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCoordinatorFixture()
	form := filledForm(validFields(), nil)
	form.SetPassword("abc")

	pending, err := c.StageCreate(form, nil)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if _, err := pending.Confirm(ctx); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if UserMessage(ErrWeakPassword) != "Password is too weak. Please choose a stronger password." {
		t.Fatalf("wrong message: %q", UserMessage(ErrWeakPassword))
	}
}

func TestCreatePartialFailure(t *testing.T) {
	ctx := context.Background()
	c, store, svc := newCoordinatorFixture()
	store.failCreate = true

	form := newEmployeeForm()
	pending, err := c.StageCreate(form, nil)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	_, err = pending.Confirm(ctx)
	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if c.Stage() != StagePartialFailure {
		t.Fatalf("expected StagePartialFailure, got %v", c.Stage())
	}
	if c.DanglingIdentity() != partial.IdentityID {
		t.Fatal("dangling identity not recorded")
	}
	if !c.FormVisible() {
		t.Fatal("form must reappear after a partial failure")
	}

	// The identity exists even though the profile write failed.
	if _, err := svc.IdentityByID(ctx, partial.IdentityID); err != nil {
		t.Fatalf("identity should exist after partial failure: %v", err)
	}

	c.AcknowledgePartialFailure()
	if c.Stage() != StageIdle || c.DanglingIdentity() != "" {
		t.Fatal("acknowledge must clear the partial failure state")
	}
}

func TestCancelLeavesNoSideEffects(t *testing.T) {
	ctx := context.Background()
	c, store, svc := newCoordinatorFixture()
	form := newEmployeeForm()

	pending, err := c.StageCreate(form, nil)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	pending.Cancel()

	if c.Stage() != StageIdle || !c.FormVisible() {
		t.Fatal("cancel must return to idle with the form visible")
	}
	if _, err := svc.CreateUser(ctx, "asha@example.com", "secret1"); err != nil {
		t.Fatalf("email should still be free after cancel: %v", err)
	}
	docs, err := docstore.Collect(ctx, store, docstore.Query{Collection: usersCol})
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("cancel must write nothing, found %d docs", len(docs))
	}
}

func TestUpdateHappyPath(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newCoordinatorFixture()
	if err := store.CreateOrReplace(ctx, usersCol, "u1", map[string]any{
		"name": "Asha Verma", "email": "asha@example.com", "employeeId": "E100", "role": "employee",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	existing := Record{ID: "u1", Name: "Asha Verma", Email: "asha@example.com", EmployeeID: "E100", Role: "employee"}
	form := FormFor(existing)
	for name, value := range validFields() {
		form.SetField(name, value, nil)
	}
	form.SetField("phoneNumber", "9000000000", nil)

	pending, err := c.StageUpdate(form, []Record{existing})
	if err != nil {
		t.Fatalf("stage update failed: %v", err)
	}
	if err := pending.Confirm(ctx); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	doc, err := store.GetOne(ctx, usersCol, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.String("phoneNumber") != "9000000000" {
		t.Fatalf("update not applied: %+v", doc.Data)
	}
	if form.Editing() != nil {
		t.Fatal("form must reset after a successful update")
	}
}

func TestUpdateFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCoordinatorFixture()

	// No document with this id exists, so the update fails downstream.
	existing := Record{ID: "missing", Name: "Ghost"}
	form := FormFor(existing)
	for name, value := range validFields() {
		form.SetField(name, value, nil)
	}

	pending, err := c.StageUpdate(form, nil)
	if err != nil {
		t.Fatalf("stage update failed: %v", err)
	}
	if err := pending.Confirm(ctx); err == nil {
		t.Fatal("expected update failure")
	}
	if form.Editing() == nil || form.Field("name") == "" {
		t.Fatal("draft must stay intact after a failed update")
	}
	if c.Stage() != StageIdle {
		t.Fatalf("expected idle after failure, got %v", c.Stage())
	}
}

func TestStageUpdateRequiresEditMode(t *testing.T) {
	c, _, _ := newCoordinatorFixture()
	if _, err := c.StageUpdate(NewForm(), nil); err == nil {
		t.Fatal("staging an update without an edited record must fail")
	}
}
