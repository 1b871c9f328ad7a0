package mockapi

import (
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
)

// Shape selects how invoices are laid out in query responses.
type Shape string

const (
	ShapeMixed   Shape = "mixed"   // alternate grouped and flat invoices
	ShapeGrouped Shape = "grouped" // one item per invoice with invoiceDetails
	ShapeFlat    Shape = "flat"    // one item per line
)

type queryResponse struct {
	Items  []any          `json:"items"`
	Total  int            `json:"total"`
	Totals map[string]int `json:"totals"`
}

type groupedItem struct {
	ERPInvoiceID string          `json:"erpInvoiceId"`
	OrderNum     string          `json:"orderNum"`
	PostDate     string          `json:"postDate"`
	Type         string          `json:"type"`
	CustomerName string          `json:"customerName"`
	Amount       decimal.Decimal `json:"amount"`
	Comment      string          `json:"comment,omitempty"`
	Status       string          `json:"status"`
	EInvoiceID   string          `json:"einvoiceId,omitempty"`
	EInvoiceDate string          `json:"einvoiceDate,omitempty"`
	SubmittedBy  string          `json:"submittedBy,omitempty"`
	PDFURL       string          `json:"pdfUrl,omitempty"`
	HasPDF       bool            `json:"hasPdf"`
	Details      []detailItem    `json:"invoiceDetails"`
}

type detailItem struct {
	PartNo      string          `json:"partNo"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UOM         string          `json:"uom"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

type flatItem struct {
	InvoiceNum   string          `json:"invoiceNum"`
	OrderNum     string          `json:"orderNum"`
	PostDate     string          `json:"postDate"`
	FapiaoType   string          `json:"fapiaoType"`
	CustomerName string          `json:"customerName"`
	Comment      string          `json:"comment,omitempty"`
	Status       string          `json:"status"`
	EInvoiceID   string          `json:"eInvoiceId,omitempty"`
	EInvoiceDate string          `json:"eInvoiceDate,omitempty"`
	SubmittedBy  string          `json:"submittedBy,omitempty"`
	PDFURL       string          `json:"pdfUrl,omitempty"`
	InvoiceTotal decimal.Decimal `json:"invoiceAmount"`

	PartNo      string          `json:"partNo"`
	Description string          `json:"lineDescription"`
	Quantity    decimal.Decimal `json:"quantity"`
	UOM         string          `json:"uom"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineAmount  decimal.Decimal `json:"lineAmount"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

type actionRequest struct {
	IDs         []string `json:"ids"`
	SubmittedBy string   `json:"submittedBy"`
}

// AppConfig is served by the app-config endpoint.
type AppConfig struct {
	AppCode      string `json:"appCode"`
	AppName      string `json:"appName"`
	PrimaryColor string `json:"primaryColor"`
	LogoURL      string `json:"logoUrl,omitempty"`
}

func toGrouped(inv *models.Invoice) groupedItem {
	g := groupedItem{
		ERPInvoiceID: inv.ID,
		OrderNum:     inv.OrderNum,
		PostDate:     inv.PostDate,
		Type:         inv.Type,
		CustomerName: inv.CustomerName,
		Amount:       inv.Amount,
		Comment:      inv.Comment,
		Status:       string(inv.Status),
		EInvoiceID:   inv.EInvoiceID,
		EInvoiceDate: inv.EInvoiceDate,
		SubmittedBy:  inv.SubmittedBy,
		PDFURL:       inv.PDFURL,
		HasPDF:       inv.HasPDF(),
		Details:      make([]detailItem, 0, len(inv.LineItems)),
	}
	for _, li := range inv.LineItems {
		g.Details = append(g.Details, detailItem{
			PartNo:      li.PartNo,
			Description: li.Description,
			Qty:         li.Quantity,
			UOM:         li.UOM,
			UnitPrice:   li.UnitPrice,
			Subtotal:    li.Subtotal,
			TaxRate:     li.TaxRate,
		})
	}
	return g
}

// toFlat emits one item per line; an invoice without lines still gets one
// header-only item.
func toFlat(inv *models.Invoice) []flatItem {
	header := flatItem{
		InvoiceNum:   inv.ID,
		OrderNum:     inv.OrderNum,
		PostDate:     inv.PostDate,
		FapiaoType:   inv.Type,
		CustomerName: inv.CustomerName,
		Comment:      inv.Comment,
		Status:       string(inv.Status),
		EInvoiceID:   inv.EInvoiceID,
		EInvoiceDate: inv.EInvoiceDate,
		SubmittedBy:  inv.SubmittedBy,
		PDFURL:       inv.PDFURL,
		InvoiceTotal: inv.Amount,
	}
	if len(inv.LineItems) == 0 {
		return []flatItem{header}
	}

	out := make([]flatItem, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		item := header
		item.PartNo = li.PartNo
		item.Description = li.Description
		item.Quantity = li.Quantity
		item.UOM = li.UOM
		item.UnitPrice = li.UnitPrice
		item.LineAmount = li.Subtotal
		item.TaxRate = li.TaxRate
		out = append(out, item)
	}
	return out
}
