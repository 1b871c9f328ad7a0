// Package transform maps the invoice rows returned by the backend into
// models.Invoice values. Two payload shapes are supported: aggregated rows
// with an invoiceDetails array, and flat ERP rows with one line each.
package transform

import (
	"encoding/json"

	"einvoice/internal/logger"
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
)

// Transform converts raw items into invoices, in the order each invoice first
// appears. Flat rows sharing an invoice number collapse into one invoice whose
// lines are numbered 1..N in input order. Items that cannot be decoded are
// skipped.
func Transform(items []json.RawMessage) []models.Invoice {
	log := logger.WithComponent("transform")

	out := make([]*models.Invoice, 0, len(items))
	byNum := make(map[string]*models.Invoice)

	for i, raw := range items {
		row, err := Detect(raw)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Skipping invoice row")
			continue
		}

		switch row.Kind {
		case KindGrouped:
			inv := fromGrouped(row.Grouped)
			out = append(out, &inv)
		case KindFlat:
			f := row.Flat
			num := f.InvoiceNum.String()
			inv, ok := byNum[num]
			if !ok {
				inv = headerFromFlat(f)
				byNum[num] = inv
				out = append(out, inv)
			}
			inv.LineItems = append(inv.LineItems, lineFromFlat(f, len(inv.LineItems)+1))
			fillHeader(inv, f)
		}
	}

	invoices := make([]models.Invoice, 0, len(out))
	for _, inv := range out {
		finish(inv)
		invoices = append(invoices, *inv)
	}
	return invoices
}

func fromGrouped(g *GroupedRow) models.Invoice {
	inv := models.Invoice{
		ID:           first(g.ERPInvoiceID, g.ID),
		OrderNum:     g.OrderNum.String(),
		PostDate:     g.PostDate.String(),
		Type:         first(g.FapiaoType, g.Type),
		CustomerName: g.CustomerName.String(),
		Comment:      g.Comment.String(),
		Amount:       g.Amount.Or(decimal.Zero),
		Status:       models.Status(g.Status.String()),
		EInvoiceID:   first(g.EInvoiceID, g.EInvoiceIDAlt),
		EInvoiceDate: first(g.EInvoiceDate, g.EInvoiceDateAlt),
		SubmittedBy:  g.SubmittedBy.String(),
		PDFURL:       first(g.PDFURL, g.EInvoicePDF),
		PDFReady:     g.HasPDF != nil && *g.HasPDF,
	}
	for i, d := range g.Details {
		inv.LineItems = append(inv.LineItems, newLine(i+1,
			d.PartNo.String(), d.Description.String(), d.UOM.String(),
			firstNumber(d.Qty, d.Quantity), d.UnitPrice, d.Subtotal, d.TaxRate))
	}
	return inv
}

func headerFromFlat(f *FlatRow) *models.Invoice {
	return &models.Invoice{
		ID:     f.InvoiceNum.String(),
		Amount: f.InvoiceTotal.Or(decimal.Zero),
	}
}

// fillHeader copies header fields from a flat row, keeping values an earlier
// row of the same invoice already set.
func fillHeader(inv *models.Invoice, f *FlatRow) {
	set := func(dst *string, v Text) {
		if *dst == "" {
			*dst = v.String()
		}
	}
	set(&inv.OrderNum, f.OrderNum)
	set(&inv.PostDate, f.PostDate)
	set(&inv.Type, f.FapiaoType)
	set(&inv.CustomerName, f.CustomerName)
	set(&inv.Comment, f.Comment)
	set(&inv.EInvoiceID, f.EInvoiceID)
	set(&inv.EInvoiceDate, f.EInvoiceDate)
	set(&inv.SubmittedBy, f.SubmittedBy)
	set(&inv.PDFURL, f.PDFURL)
	if inv.Status == "" {
		inv.Status = models.Status(f.Status.String())
	}
}

func lineFromFlat(f *FlatRow, lineNo int) models.LineItem {
	return newLine(lineNo, f.PartNo.String(), f.Description.String(), f.UOM.String(),
		f.Quantity, f.UnitPrice, f.LineAmount, f.TaxRate)
}

func newLine(lineNo int, partNo, desc, uom string, qty, price, subtotal, rate Number) models.LineItem {
	li := models.LineItem{
		LineNo:      lineNo,
		PartNo:      partNo,
		Description: desc,
		Quantity:    qty.Or(decimal.Zero),
		UOM:         uom,
		UnitPrice:   price.Or(decimal.Zero),
		TaxRate:     rate.Or(decimal.Zero),
	}
	if subtotal.Valid {
		li.Subtotal = subtotal.Value
	} else {
		li.Subtotal = li.Quantity.Mul(li.UnitPrice).Round(2)
	}
	li.TaxTotal = models.ComputeTax(li.Subtotal, li.TaxRate)
	return li
}

// finish recomputes the amount from the lines and settles the status.
func finish(inv *models.Invoice) {
	if len(inv.LineItems) > 0 {
		total := decimal.Zero
		for _, li := range inv.LineItems {
			total = total.Add(li.Gross())
		}
		inv.Amount = total
	}
	inv.Status = DeriveStatus(string(inv.Status), inv.EInvoiceID, inv.HasPDF(), inv.Comment)
}

func firstNumber(values ...Number) Number {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return Number{}
}
