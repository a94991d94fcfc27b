package payments

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Statement renders the given payment records as a PDF ledger.
func Statement(records []Record, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payment Statement")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 8, "Employee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Emp ID", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Month", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(20, 8, "Status", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 8, "Transaction Date", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range records {
		amount := "-"
		if r.AmountPaid != nil {
			amount = fmt.Sprintf("%.2f", *r.AmountPaid)
		}
		date := "-"
		if r.TransactionDate != nil {
			date = r.TransactionDate.Format("2006-01-02 15:04")
		}
		pdf.CellFormat(45, 8, r.EmployeeName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, r.EmployeeID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, r.Month, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, amount, "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 8, r.Status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, date, "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
