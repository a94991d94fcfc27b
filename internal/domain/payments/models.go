package payments

import (
	"strings"
	"time"

	"staffportal/internal/platform/docstore"
)

const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
	StatusFailed  = "Failed"
)

// Record is one payment ledger entry as shown in the payments view.
type Record struct {
	ID                string     `json:"id"`
	EmployeeName      string     `json:"employeeName"`
	EmployeeID        string     `json:"employeeId"`
	Month             string     `json:"month"`
	AmountPaid        *float64   `json:"amountPaid,omitempty"`
	Status            string     `json:"status"`
	TransactionDate   *time.Time `json:"transactionDate,omitempty"`
	UTRNumber         string     `json:"utrNumber,omitempty"`
	BankAccountNumber string     `json:"bankAccountNumber,omitempty"`
	Message           string     `json:"message,omitempty"`
}

func FromDocument(doc docstore.Document) Record {
	r := Record{
		ID:                doc.ID,
		EmployeeName:      doc.String("employeeName"),
		EmployeeID:        doc.String("employeeId"),
		Month:             doc.String("month"),
		Status:            doc.String("status"),
		UTRNumber:         doc.String("utrNumber"),
		BankAccountNumber: doc.String("bankAccountNumber"),
		Message:           doc.String("message"),
	}
	if amount, ok := doc.Float("amountPaid"); ok {
		r.AmountPaid = &amount
	}
	if ts, ok := doc.Time("transactionDate"); ok {
		r.TransactionDate = &ts
	}
	return r
}

func MapDocuments(docs []docstore.Document) []Record {
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, FromDocument(doc))
	}
	return records
}

// Matches reports whether the record satisfies a case-insensitive search
// term over employee name, employee id, status and month.
func (r Record) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{r.EmployeeName, r.EmployeeID, r.Status, r.Month} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Filter applies Matches to a whole snapshot.
func Filter(records []Record, term string) []Record {
	if strings.TrimSpace(term) == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Matches(term) {
			out = append(out, r)
		}
	}
	return out
}
