package profile

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/blobstore"
	"staffportal/internal/platform/docstore"
)

// Profile is the signed-in user's own record, merged with the identity's
// email so it is populated even before the document exists.
type Profile struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phoneNumber"`
	DOB               string `json:"dob"`
	Address           string `json:"address"`
	AadharNumber      string `json:"aadharNumber,omitempty"`
	PANCardNumber     string `json:"panCardNumber,omitempty"`
	BankName          string `json:"bankName,omitempty"`
	BankAccountNumber string `json:"bankAccountNumber,omitempty"`
	IFSCCode          string `json:"ifscCode,omitempty"`
	EmployeeID        string `json:"employeeId,omitempty"`
	Role              string `json:"role"`
	Department        string `json:"department,omitempty"`
	PhotoURL          string `json:"photoURL,omitempty"`
}

type Service struct {
	docs       docstore.Store
	blobs      blobstore.Store
	collection string
}

func NewService(docs docstore.Store, blobs blobstore.Store, collection string) *Service {
	return &Service{docs: docs, blobs: blobs, collection: collection}
}

// Get loads the caller's profile. A missing document yields a profile with
// just the identity email, matching what first sign-in provisions.
func (s *Service) Get(ctx context.Context, ident authsvc.Identity) (Profile, error) {
	p := Profile{ID: ident.ID, Email: ident.Email, Role: "employee"}

	doc, err := s.docs.GetOne(ctx, s.collection, ident.ID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return p, nil
		}
		return Profile{}, err
	}

	p.Name = doc.String("name")
	if email := doc.String("email"); email != "" {
		p.Email = email
	}
	p.PhoneNumber = doc.String("phoneNumber")
	p.DOB = normalizeDOB(doc.String("dob"))
	p.Address = doc.String("address")
	p.AadharNumber = doc.String("aadharNumber")
	p.PANCardNumber = doc.String("panCardNumber")
	p.BankName = doc.String("bankName")
	p.BankAccountNumber = doc.String("bankAccountNumber")
	p.IFSCCode = doc.String("ifscCode")
	p.EmployeeID = doc.String("employeeId")
	p.Department = doc.String("department")
	p.PhotoURL = doc.String("photoURL")
	if role := doc.String("role"); role != "" {
		p.Role = role
	}
	return p, nil
}

// SaveInput carries the self-service editable fields. Name is honored for
// admins only; photo is optional.
type SaveInput struct {
	PhoneNumber string
	Address     string
	Name        string
	Photo       io.Reader
	PhotoName   string
}

// Save patches the caller's own record. Only contact fields are writable by
// employees; admins may also rename themselves. When no document exists yet
// the patch creates one.
func (s *Service) Save(ctx context.Context, ident authsvc.Identity, isAdmin bool, in SaveInput) (Profile, error) {
	data := map[string]any{}
	if v := strings.TrimSpace(in.PhoneNumber); v != "" {
		data["phoneNumber"] = v
	}
	if v := strings.TrimSpace(in.Address); v != "" {
		data["address"] = v
	}
	if isAdmin && strings.TrimSpace(in.Name) != "" {
		data["name"] = strings.TrimSpace(in.Name)
	}

	if in.Photo != nil {
		name := path.Join("profile_pictures", ident.ID, in.PhotoName)
		ref, err := s.blobs.Upload(ctx, name, in.Photo)
		if err != nil {
			return Profile{}, err
		}
		data["photoURL"] = s.blobs.DownloadURL(ref)
	}

	if err := s.docs.Update(ctx, s.collection, ident.ID, data); err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			return Profile{}, err
		}
		data["email"] = ident.Email
		data["role"] = "employee"
		data["createdAt"] = docstore.Timestamp(time.Now())
		if err := s.docs.CreateOrReplace(ctx, s.collection, ident.ID, data); err != nil {
			return Profile{}, err
		}
	}
	return s.Get(ctx, ident)
}

// normalizeDOB renders stored dates, whatever their shape, as YYYY-MM-DD.
func normalizeDOB(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
