package payments

import (
	"bytes"
	"context"
	"testing"
	"time"

	"staffportal/internal/platform/docstore"
)

func seedLedger(t *testing.T, store *docstore.Memory, col string) {
	t.Helper()
	ctx := context.Background()
	rows := []map[string]any{
		{
			"employeeName": "Asha Verma", "employeeId": "E100", "month": "May 2025",
			"amountPaid": 52000.50, "status": StatusPaid, "utrNumber": "UTR123",
			"transactionDate": docstore.Timestamp(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			"employeeName": "Ravi Nair", "employeeId": "E101", "month": "May 2025",
			"amountPaid": 48000.0, "status": StatusPending,
			"transactionDate": docstore.Timestamp(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)),
		},
		{
			"employeeName": "Meena Iyer", "employeeId": "E102", "month": "April 2025",
			"status":          StatusFailed,
			"message":         "account closed",
			"transactionDate": docstore.Timestamp(time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)),
		},
	}
	for _, row := range rows {
		if _, err := store.Add(ctx, col, row); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestFromDocumentMapping(t *testing.T) {
	when := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	doc := docstore.Document{ID: "p1", Data: map[string]any{
		"employeeName":    "Asha Verma",
		"employeeId":      "E100",
		"month":           "May 2025",
		"amountPaid":      52000.50,
		"status":          StatusPaid,
		"utrNumber":       "UTR123",
		"transactionDate": docstore.Timestamp(when),
	}}

	r := FromDocument(doc)
	if r.AmountPaid == nil || *r.AmountPaid != 52000.50 {
		t.Fatalf("amount not mapped: %+v", r.AmountPaid)
	}
	if r.TransactionDate == nil || !r.TransactionDate.Equal(when) {
		t.Fatalf("transaction date not mapped: %+v", r.TransactionDate)
	}
	if r.EmployeeName != "Asha Verma" || r.Status != StatusPaid {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestFromDocumentMissingOptionals(t *testing.T) {
	r := FromDocument(docstore.Document{ID: "p1", Data: map[string]any{"status": StatusFailed}})
	if r.AmountPaid != nil || r.TransactionDate != nil {
		t.Fatal("missing optionals must stay nil")
	}
}

func TestMatches(t *testing.T) {
	amount := 52000.50
	r := Record{EmployeeName: "Asha Verma", EmployeeID: "E100", Month: "May 2025", Status: StatusPaid, AmountPaid: &amount}

	for _, term := range []string{"", "asha", "VERMA", "e100", "paid", "may"} {
		if !r.Matches(term) {
			t.Errorf("term %q should match", term)
		}
	}
	for _, term := range []string{"ravi", "failed", "june"} {
		if r.Matches(term) {
			t.Errorf("term %q should not match", term)
		}
	}
}

func TestFeedOrdersByTransactionDateDesc(t *testing.T) {
	store := docstore.NewMemory()
	const col = "apps/test/payments"
	seedLedger(t, store, col)

	feed := Open(store, col)
	defer feed.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case records, ok := <-feed.Snapshots():
			if !ok {
				t.Fatalf("feed closed: %v", feed.Err())
			}
			if len(records) != 3 {
				continue
			}
			if records[0].EmployeeName != "Ravi Nair" || records[2].EmployeeName != "Meena Iyer" {
				t.Fatalf("wrong order: %s...%s", records[0].EmployeeName, records[2].EmployeeName)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for payments snapshot")
		}
	}
}

func TestStatementRendersPDF(t *testing.T) {
	amount := 52000.50
	when := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []Record{
		{EmployeeName: "Asha Verma", EmployeeID: "E100", Month: "May 2025", AmountPaid: &amount, Status: StatusPaid, TransactionDate: &when},
		{EmployeeName: "Meena Iyer", EmployeeID: "E102", Month: "April 2025", Status: StatusFailed},
	}

	data, err := Statement(records, time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("statement failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestStatementEmptyLedger(t *testing.T) {
	data, err := Statement(nil, time.Now())
	if err != nil {
		t.Fatalf("statement failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty ledger must still render a document")
	}
}
