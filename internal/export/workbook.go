// Package export handles spreadsheets: the xlsx blobs returned by the
// backend export endpoint and local exports of a fetched page.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"einvoice/internal/logger"
	"einvoice/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	InvoiceSheet = "Invoices"
	LineSheet    = "Lines"
)

// ErrNotWorkbook is returned when a blob is not a readable xlsx file.
var ErrNotWorkbook = errors.New("not an xlsx workbook")

var (
	invoiceHeader = []any{"Invoice", "Post Date", "Type", "Customer", "Amount", "Comment", "Status", "E-Invoice", "E-Invoice Date", "Submitted By", "PDF", "Order"}
	lineHeader    = []any{"Invoice", "Line", "Part", "Description", "Quantity", "UOM", "Unit Price", "Subtotal", "Tax Rate", "Tax"}
)

// SheetSummary describes one worksheet of an inspected workbook.
type SheetSummary struct {
	Name   string
	Rows   int // data rows, header excluded
	Header []string
}

// Inspect opens an xlsx blob and summarises its sheets.
func Inspect(blob []byte) ([]SheetSummary, error) {
	const op = "Inspect"

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrNotWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	out := make([]SheetSummary, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%s: read sheet %q: %w", op, name, err)
		}
		s := SheetSummary{Name: name}
		if len(rows) > 0 {
			s.Header = rows[0]
			s.Rows = len(rows) - 1
		}
		out = append(out, s)
	}
	return out, nil
}

// WritePage writes the invoices of page and their line items to w as xlsx.
func WritePage(w io.Writer, page models.Page) error {
	const op = "WritePage"
	log := logger.WithComponent("export")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), InvoiceSheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(LineSheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%s: create header style: %w", op, err)
	}

	if err := writeRow(f, InvoiceSheet, 1, invoiceHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeRow(f, LineSheet, 1, lineHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetRowStyle(InvoiceSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetRowStyle(LineSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lineRow := 2
	for i, inv := range page.Invoices {
		amount, _ := inv.Amount.Float64()
		row := []any{
			inv.ID, inv.PostDate, inv.Type, inv.CustomerName, amount, inv.Comment,
			string(inv.Status), inv.EInvoiceID, inv.EInvoiceDate, inv.SubmittedBy, inv.PDFURL, inv.OrderNum,
		}
		if err := writeRow(f, InvoiceSheet, i+2, row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		for _, li := range inv.LineItems {
			qty, _ := li.Quantity.Float64()
			price, _ := li.UnitPrice.Float64()
			subtotal, _ := li.Subtotal.Float64()
			rate, _ := li.TaxRate.Float64()
			tax, _ := li.TaxTotal.Float64()
			if err := writeRow(f, LineSheet, lineRow, []any{
				inv.ID, li.LineNo, li.PartNo, li.Description, qty, li.UOM, price, subtotal, rate, tax,
			}); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			lineRow++
		}
	}

	if err := f.SetColWidth(InvoiceSheet, "A", "L", 16); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: write workbook: %w", op, err)
	}

	log.Debug().Int("invoices", len(page.Invoices)).Int("lines", lineRow-2).Msg("Page exported")
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
