package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice as shown in the sidebar.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusError     Status = "ERROR"
	StatusRedNote   Status = "RED_NOTE"
)

// Statuses lists every status in sidebar order.
var Statuses = []Status{StatusPending, StatusSubmitted, StatusError, StatusRedNote}

// ParseStatus matches s against the backend enum, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(StatusPending):
		return StatusPending, true
	case string(StatusSubmitted):
		return StatusSubmitted, true
	case string(StatusError):
		return StatusError, true
	case string(StatusRedNote), "REDNOTE", "RED-NOTE":
		return StatusRedNote, true
	}
	return "", false
}

// Label returns the sidebar label for the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSubmitted:
		return "Submitted"
	case StatusError:
		return "Error"
	case StatusRedNote:
		return "Red Note"
	}
	return "View All"
}

type Invoice struct {
	// Core identifiers
	ID       string // ERP-assigned invoice id, string even when numeric
	OrderNum string // Sales order reference

	PostDate     string // ISO date the invoice was posted in the ERP
	Type         string // Fapiao type (special VAT, general, ...)
	CustomerName string
	Comment      string

	// Amount is the invoice total including tax. It always equals the sum of
	// LineItems subtotal plus tax when LineItems is non-empty.
	Amount decimal.Decimal

	Status Status

	// Electronic invoice data, set once the fapiao has been issued
	EInvoiceID   string
	EInvoiceDate string
	SubmittedBy  string
	PDFURL       string
	PDFReady     bool // backend reports a PDF without sending its link

	LineItems []LineItem
}

// HasPDF reports whether an e-invoice PDF is linked.
func (inv *Invoice) HasPDF() bool {
	return inv.PDFReady || inv.PDFURL != ""
}

// LineItem is one line of an invoice.
type LineItem struct {
	LineNo      int // 1-based, sequential in ingestion order
	PartNo      string
	Description string
	Quantity    decimal.Decimal
	UOM         string
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal // percentage, 13 means 13%
	TaxTotal    decimal.Decimal // Subtotal * TaxRate / 100, rounded to 2 decimals
}

var hundred = decimal.NewFromInt(100)

// ComputeTax returns subtotal * rate / 100 rounded to two decimals.
func ComputeTax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Div(hundred).Round(2)
}

// Gross returns the line subtotal plus its tax.
func (li LineItem) Gross() decimal.Decimal {
	return li.Subtotal.Add(li.TaxTotal)
}

// Page is the result of one fetch. It is replaced wholesale by the next one.
type Page struct {
	Invoices []Invoice
	Total    int            // records across all pages
	Totals   map[Status]int // per-status counts for the sidebar, may be nil
}

// Empty reports whether the page carries no rows.
func (p Page) Empty() bool {
	return len(p.Invoices) == 0
}

// IDs returns the invoice ids on the page in display order.
func (p Page) IDs() []string {
	ids := make([]string, 0, len(p.Invoices))
	for i := range p.Invoices {
		ids = append(ids, p.Invoices[i].ID)
	}
	return ids
}

// AllCount sums the per-status totals, falling back to Total.
func (p Page) AllCount() int {
	if len(p.Totals) == 0 {
		return p.Total
	}
	n := 0
	for _, c := range p.Totals {
		n += c
	}
	return n
}
