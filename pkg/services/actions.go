package services

import (
	"context"
)

// ActionService performs the one-shot invoice actions offered by the console.
// None of them refresh the grid; callers do that after a successful action.
type ActionService interface {
	// SubmitInvoice issues an e-invoice for a single ERP invoice
	SubmitInvoice(ctx context.Context, id, submittedBy string) error

	// MergeInvoices issues one e-invoice covering several ERP invoices
	MergeInvoices(ctx context.Context, ids []string, submittedBy string) error

	// RedNote issues a credit note against a submitted e-invoice
	RedNote(ctx context.Context, id, submittedBy string) error

	// ExportInvoices returns a spreadsheet (xlsx) with the given invoices
	ExportInvoices(ctx context.Context, ids []string) ([]byte, error)
}
