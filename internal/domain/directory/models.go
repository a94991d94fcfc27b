package directory

import (
	"context"

	"staffportal/internal/platform/docstore"
)

// Record is one employee of the directory. The document id doubles as the
// identity id of the employee's login.
type Record struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	PhoneNumber       string   `json:"phoneNumber"`
	DOB               string   `json:"dob"`
	Address           string   `json:"address"`
	AadharNumber      string   `json:"aadharNumber"`
	PANCardNumber     string   `json:"panCardNumber"`
	BankName          string   `json:"bankName"`
	BankAccountNumber string   `json:"bankAccountNumber"`
	IFSCCode          string   `json:"ifscCode"`
	EmployeeID        string   `json:"employeeId"`
	Role              string   `json:"role"`
	Department        string   `json:"department,omitempty"`
	PhotoURL          string   `json:"photoURL,omitempty"`
	LeaveBalance      *float64 `json:"leaveBalance,omitempty"`
}

func FromDocument(doc docstore.Document) Record {
	r := Record{
		ID:                doc.ID,
		Name:              doc.String("name"),
		Email:             doc.String("email"),
		PhoneNumber:       doc.String("phoneNumber"),
		DOB:               doc.String("dob"),
		Address:           doc.String("address"),
		AadharNumber:      doc.String("aadharNumber"),
		PANCardNumber:     doc.String("panCardNumber"),
		BankName:          doc.String("bankName"),
		BankAccountNumber: doc.String("bankAccountNumber"),
		IFSCCode:          doc.String("ifscCode"),
		EmployeeID:        doc.String("employeeId"),
		Role:              doc.String("role"),
		Department:        doc.String("department"),
		PhotoURL:          doc.String("photoURL"),
	}
	if r.Role == "" {
		r.Role = "employee"
	}
	if balance, ok := doc.Float("leaveBalance"); ok {
		r.LeaveBalance = &balance
	}
	return r
}

// MapDocuments converts a raw snapshot to records, dropping admin profiles:
// the directory shows employees only.
func MapDocuments(docs []docstore.Document) []Record {
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		if doc.String("role") == "admin" {
			continue
		}
		records = append(records, FromDocument(doc))
	}
	return records
}

// Load is a one-shot read of the directory, used where no live feed is held.
func Load(ctx context.Context, store docstore.Store, collection string) ([]Record, error) {
	docs, err := docstore.Collect(ctx, store, docstore.Query{Collection: collection, OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	return MapDocuments(docs), nil
}
