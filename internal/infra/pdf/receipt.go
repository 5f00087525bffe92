package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

type ReceiptData struct {
	ReceiptNo      string
	StudentName    string
	RegistrationNo string
	Email          string
	ClassName      string

	FeeTitle string
	Category string
	Amount   int64
	Currency string
	DueDate  time.Time

	PaymentRef string
	OrderRef   string
	Mode       string
	Status     string
	PaidAt     time.Time
}

// RenderReceipt lays out a single-page A4 payment receipt.
func RenderReceipt(d ReceiptData) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Payment Receipt "+d.ReceiptNo, false)
	doc.SetCreator("GetPay", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, "Payment Receipt", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(110, 110, 110)
	doc.CellFormat(0, 6, "Receipt No. "+d.ReceiptNo, "", 1, "C", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(6)

	section(doc, "Student Details")
	row(doc, "Name", d.StudentName)
	row(doc, "Registration No.", d.RegistrationNo)
	row(doc, "Email", d.Email)
	if d.ClassName != "" {
		row(doc, "Class", d.ClassName)
	}
	doc.Ln(4)

	section(doc, "Fee Details")
	row(doc, "Fee", d.FeeTitle)
	row(doc, "Category", d.Category)
	row(doc, "Amount", FormatAmount(d.Amount, d.Currency))
	if !d.DueDate.IsZero() {
		row(doc, "Due Date", d.DueDate.Format("02 Jan 2006"))
	}
	doc.Ln(4)

	section(doc, "Payment Details")
	row(doc, "Payment ID", d.PaymentRef)
	if d.OrderRef != "" {
		row(doc, "Order ID", d.OrderRef)
	}
	row(doc, "Mode", d.Mode)
	row(doc, "Paid On", d.PaidAt.Format("02 Jan 2006 15:04 MST"))
	row(doc, "Status", d.Status)

	doc.Ln(10)
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(110, 110, 110)
	doc.MultiCell(0, 5, "This is a computer generated receipt and does not require a signature.", "", "C", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", d.ReceiptNo, err)
	}
	return buf.Bytes(), nil
}

func section(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.SetFillColor(235, 240, 250)
	doc.CellFormat(0, 8, title, "", 1, "L", true, 0, "")
	doc.Ln(1)
}

func row(doc *fpdf.Fpdf, label, value string) {
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(50, 7, label, "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

// FormatAmount renders a major-unit amount with thousands separators.
func FormatAmount(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		out = append([]byte{'-'}, out...)
	}
	if currency == "" {
		return string(out)
	}
	return currency + " " + string(out)
}
