// Package receipt renders customer billing statements as A4 PDF documents.
package receipt

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"milkbook/internal/domain"
)

// Data is everything a rendered receipt needs. The shop fields come from
// settings, the rest from a customer statement.
type Data struct {
	ShopName    string
	ShopAddress string
	ShopContact string
	Customer    domain.Customer
	PeriodLabel string
	Deliveries  []domain.StatementDelivery
	Payments    []domain.StatementPayment
}

// Totals computes charges, paid, and dues for a statement. Dues is the
// signed difference and may be negative when the customer holds credit.
func Totals(deliveries []domain.StatementDelivery, payments []domain.StatementPayment) (charges, paid, dues decimal.Decimal) {
	charges = decimal.Zero
	for _, d := range deliveries {
		charges = charges.Add(d.Price.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	paid = decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return charges, paid, charges.Sub(paid)
}

// Page geometry, in millimetres on A4 portrait.
const (
	leftMargin = 20.0
	topStart   = 277.0 // 297mm page height minus 20mm top margin
	lineStep   = 6.0
	breakFloor = 25.0 // start a fresh page below this
	rightEdge  = 190.0
	pageHeight = 297.0
)

type layout struct {
	pdf *gofpdf.Fpdf
	y   float64
}

func (l *layout) text(x float64, size float64, bold bool, s string) {
	style := ""
	if bold {
		style = "B"
	}
	l.pdf.SetFont("Helvetica", style, size)
	// gofpdf's origin is top-left; the layout tracks distance from the
	// bottom edge, so flip before drawing.
	l.pdf.Text(x, pageHeight-l.y, s)
}

func (l *layout) advance(step float64) {
	l.y -= step
}

func (l *layout) pageBreak(headers func(*layout)) {
	if l.y < breakFloor {
		l.pdf.AddPage()
		l.y = topStart
		if headers != nil {
			headers(l)
		}
	}
}

// Generate renders the receipt and returns the PDF bytes.
func Generate(data Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	l := &layout{pdf: pdf, y: topStart}

	shopName := data.ShopName
	if shopName == "" {
		shopName = "Milk Billing System"
	}
	l.text(leftMargin, 16, true, shopName)
	l.advance(7)
	if data.ShopAddress != "" {
		l.text(leftMargin, 9, false, data.ShopAddress)
		l.advance(5)
	}
	if data.ShopContact != "" {
		l.text(leftMargin, 9, false, "Contact: "+data.ShopContact)
		l.advance(5)
	}
	l.advance(3)

	l.text(leftMargin, 12, true, "Milk Billing Receipt")
	l.advance(7)
	l.text(leftMargin, 10, false, "Customer: "+data.Customer.Name)
	l.advance(5)
	if data.Customer.Contact != "" {
		l.text(leftMargin, 10, false, "Contact: "+data.Customer.Contact)
		l.advance(5)
	}
	if data.Customer.Address != "" {
		l.text(leftMargin, 10, false, "Address: "+data.Customer.Address)
		l.advance(5)
	}
	l.text(leftMargin, 10, false, "Period: "+data.PeriodLabel)
	l.advance(8)

	charges, paid, dues := Totals(data.Deliveries, data.Payments)

	// Both sections always render their title, column headers, and total,
	// even for an empty period. Only the rows vary.
	l.text(leftMargin, 11, true, "Deliveries")
	l.advance(6)
	deliveryHeaders(l)
	for _, d := range data.Deliveries {
		l.pageBreak(deliveryHeaders)
		l.text(20, 9, false, d.Date)
		l.text(45, 9, false, clip(d.ItemName, 18))
		l.text(85, 9, false, fmt.Sprintf("%d", d.Quantity))
		l.text(100, 9, false, d.Price.StringFixed(2))
		l.text(120, 9, false, clip(d.PartnerName, 28))
		l.advance(lineStep)
	}
	l.pageBreak(nil)
	l.text(leftMargin, 9, true, "Deliveries total: "+charges.StringFixed(2))
	l.advance(lineStep)
	l.advance(3)

	l.pageBreak(nil)
	l.text(leftMargin, 11, true, "Payments")
	l.advance(6)
	paymentHeaders(l)
	for _, p := range data.Payments {
		l.pageBreak(paymentHeaders)
		l.text(20, 9, false, p.Date)
		l.text(45, 9, false, p.Amount.StringFixed(2))
		l.text(70, 9, false, clip(p.Notes, 48))
		l.advance(lineStep)
	}
	l.pageBreak(nil)
	l.text(leftMargin, 9, true, "Payments total: "+paid.StringFixed(2))
	l.advance(lineStep)
	l.advance(3)

	l.pageBreak(nil)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Line(leftMargin, pageHeight-l.y, rightEdge, pageHeight-l.y)
	l.advance(6)
	l.text(leftMargin, 10, true, "Total charges: "+charges.StringFixed(2))
	l.advance(5)
	l.text(leftMargin, 10, true, "Total paid: "+paid.StringFixed(2))
	l.advance(5)
	if dues.IsNegative() {
		l.text(leftMargin, 10, true, "Credit balance: "+dues.Neg().StringFixed(2))
	} else {
		l.text(leftMargin, 10, true, "Dues: "+dues.StringFixed(2))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func deliveryHeaders(l *layout) {
	l.text(20, 9, true, "Date")
	l.text(45, 9, true, "Item")
	l.text(85, 9, true, "Qty")
	l.text(100, 9, true, "Price")
	l.text(120, 9, true, "Partner")
	l.advance(lineStep)
}

func paymentHeaders(l *layout) {
	l.text(20, 9, true, "Date")
	l.text(45, 9, true, "Amount")
	l.text(70, 9, true, "Notes")
	l.advance(lineStep)
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "~"
}
