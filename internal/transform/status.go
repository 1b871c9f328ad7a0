package transform

import (
	"strings"

	"einvoice/pkg/models"
)

// Comment markers used when the backend sends no usable status. Matching free
// text is imprecise: a customer comment such as "deliver to Redwood St" reads
// as a red note. Keep in sync with the backend once it always sends status.
const (
	errorMarker   = "error"
	redNoteMarker = "red"
)

// DeriveStatus picks the invoice status. A recognised explicit status wins;
// otherwise an issued e-invoice (id or PDF) means SUBMITTED, then the comment
// is searched for error and red-note markers, and everything else is PENDING.
func DeriveStatus(explicit, eInvoiceID string, hasPDF bool, comment string) models.Status {
	if s, ok := models.ParseStatus(explicit); ok {
		return s
	}
	if eInvoiceID != "" || hasPDF {
		return models.StatusSubmitted
	}
	c := strings.ToLower(comment)
	switch {
	case strings.Contains(c, errorMarker):
		return models.StatusError
	case strings.Contains(c, redNoteMarker):
		return models.StatusRedNote
	}
	return models.StatusPending
}
