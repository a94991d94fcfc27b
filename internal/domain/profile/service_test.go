package profile

import (
	"context"
	"strings"
	"testing"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/blobstore"
	"staffportal/internal/platform/docstore"
)

const usersCol = "apps/test/users"

func newService(t *testing.T) (*Service, *docstore.Memory) {
	t.Helper()
	docs := docstore.NewMemory()
	blobs := blobstore.NewFS(t.TempDir(), "/files")
	return NewService(docs, blobs, usersCol), docs
}

func TestGetMergesIdentityEmail(t *testing.T) {
	svc, _ := newService(t)
	ident := authsvc.Identity{ID: "u1", Email: "asha@example.com"}

	p, err := svc.Get(context.Background(), ident)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p.Email != "asha@example.com" || p.Role != "employee" {
		t.Fatalf("missing profile should fall back to identity: %+v", p)
	}
}

func TestGetNormalizesDOB(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()
	if err := docs.CreateOrReplace(ctx, usersCol, "u1", map[string]any{
		"name": "Asha", "dob": "1994-02-17T00:00:00Z", "role": "employee",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	p, err := svc.Get(ctx, authsvc.Identity{ID: "u1", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p.DOB != "1994-02-17" {
		t.Fatalf("dob not normalized: %q", p.DOB)
	}
}

func TestSavePatchesContactFields(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()
	if err := docs.CreateOrReplace(ctx, usersCol, "u1", map[string]any{
		"name": "Asha Verma", "role": "employee", "employeeId": "E100",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	ident := authsvc.Identity{ID: "u1", Email: "asha@example.com"}

	p, err := svc.Save(ctx, ident, false, SaveInput{PhoneNumber: "9000000000", Address: "14 FC Road", Name: "Hacker"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if p.PhoneNumber != "9000000000" || p.Address != "14 FC Road" {
		t.Fatalf("contact fields not saved: %+v", p)
	}
	if p.Name != "Asha Verma" {
		t.Fatal("non-admin must not rename themselves")
	}

	p, err = svc.Save(ctx, ident, true, SaveInput{Name: "Asha V"})
	if err != nil {
		t.Fatalf("admin save failed: %v", err)
	}
	if p.Name != "Asha V" {
		t.Fatal("admin rename not applied")
	}
	if p.EmployeeID != "E100" {
		t.Fatal("untouched fields must survive the patch")
	}
}

func TestSaveCreatesMissingProfile(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()
	ident := authsvc.Identity{ID: "u9", Email: "new@example.com"}

	if _, err := svc.Save(ctx, ident, false, SaveInput{PhoneNumber: "9111111111"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	doc, err := docs.GetOne(ctx, usersCol, "u9")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if doc.String("email") != "new@example.com" || doc.String("role") != "employee" {
		t.Fatalf("created profile missing defaults: %+v", doc.Data)
	}
}

func TestSaveUploadsPhoto(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()
	ident := authsvc.Identity{ID: "u1", Email: "asha@example.com"}

	p, err := svc.Save(ctx, ident, false, SaveInput{
		Photo:     strings.NewReader("fake-image-bytes"),
		PhotoName: "avatar.png",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.Contains(p.PhotoURL, "profile_pictures/u1/avatar.png") {
		t.Fatalf("unexpected photo url: %q", p.PhotoURL)
	}

	doc, err := docs.GetOne(ctx, usersCol, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.String("photoURL") == "" {
		t.Fatal("photo url not persisted")
	}
}
