package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownShape is returned by Detect for items that are neither an
// aggregated invoice nor an ERP invoice line.
var ErrUnknownShape = errors.New("unrecognised invoice row shape")

// RowKind tags the two payload shapes the backend has produced over time.
type RowKind uint8

const (
	// KindGrouped is one invoice per row with an embedded invoiceDetails array.
	KindGrouped RowKind = iota + 1
	// KindFlat is one ERP invoice line per row; rows share an invoice number.
	KindFlat
)

func (k RowKind) String() string {
	switch k {
	case KindGrouped:
		return "grouped"
	case KindFlat:
		return "flat"
	}
	return "unknown"
}

// Row is a detected raw row; exactly one of Grouped and Flat is set.
type Row struct {
	Kind    RowKind
	Grouped *GroupedRow
	Flat    *FlatRow
}

// Text accepts a JSON string, number or bool and keeps its textual form. ERP
// ids arrive both as "8240" and 8240.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Number accepts a JSON number, a numeric string, an empty string or null.
// Anything unparseable leaves it invalid instead of failing the row.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(unquoted, ",", ""))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Value: d, Valid: true}
	return nil
}

// Or returns the value, or def when invalid.
func (n Number) Or(def decimal.Decimal) decimal.Decimal {
	if n.Valid {
		return n.Value
	}
	return def
}

// GroupedRow is an API-aggregated invoice.
type GroupedRow struct {
	ID           Text   `json:"id"`
	ERPInvoiceID Text   `json:"erpInvoiceId"`
	OrderNum     Text   `json:"orderNum"`
	PostDate     Text   `json:"postDate"`
	Type         Text   `json:"type"`
	FapiaoType   Text   `json:"fapiaoType"`
	CustomerName Text   `json:"customerName"`
	Amount       Number `json:"amount"`
	Comment      Text   `json:"comment"`
	Status       Text   `json:"status"`

	EInvoiceID      Text  `json:"einvoiceId"`
	EInvoiceIDAlt   Text  `json:"eInvoiceId"`
	EInvoiceDate    Text  `json:"einvoiceDate"`
	EInvoiceDateAlt Text  `json:"eInvoiceDate"`
	SubmittedBy     Text  `json:"submittedBy"`
	PDFURL          Text  `json:"pdfUrl"`
	EInvoicePDF     Text  `json:"eInvoicePdf"`
	HasPDF          *bool `json:"hasPdf"`

	Details []DetailRow `json:"invoiceDetails"`
}

// DetailRow is one entry of GroupedRow.Details.
type DetailRow struct {
	PartNo      Text   `json:"partNo"`
	Description Text   `json:"description"`
	Qty         Number `json:"qty"`
	Quantity    Number `json:"quantity"`
	UOM         Text   `json:"uom"`
	UnitPrice   Number `json:"unitPrice"`
	Subtotal    Number `json:"subtotal"`
	TaxRate     Number `json:"taxRate"`
}

// FlatRow is one ERP invoice line carrying a copy of the invoice header.
type FlatRow struct {
	InvoiceNum   Text   `json:"invoiceNum"`
	OrderNum     Text   `json:"orderNum"`
	PostDate     Text   `json:"postDate"`
	FapiaoType   Text   `json:"fapiaoType"`
	CustomerName Text   `json:"customerName"`
	Comment      Text   `json:"comment"`
	Status       Text   `json:"status"`
	EInvoiceID   Text   `json:"eInvoiceId"`
	EInvoiceDate Text   `json:"eInvoiceDate"`
	SubmittedBy  Text   `json:"submittedBy"`
	PDFURL       Text   `json:"pdfUrl"`
	InvoiceTotal Number `json:"invoiceAmount"`

	PartNo      Text   `json:"partNo"`
	Description Text   `json:"lineDescription"`
	Quantity    Number `json:"quantity"`
	UOM         Text   `json:"uom"`
	UnitPrice   Number `json:"unitPrice"`
	LineAmount  Number `json:"lineAmount"`
	TaxRate     Number `json:"taxRate"`
}

// Detect classifies a raw item by its keys and decodes it into the matching
// variant.
func Detect(raw json.RawMessage) (Row, error) {
	const op = "Detect"

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Row{}, fmt.Errorf("%s: item is not an object: %w", op, err)
	}

	var kind RowKind
	switch {
	case has(keys, "invoiceDetails"):
		kind = KindGrouped
	case has(keys, "invoiceNum"):
		kind = KindFlat
	case has(keys, "erpInvoiceId"), has(keys, "id"):
		kind = KindGrouped
	default:
		return Row{}, fmt.Errorf("%s: %w", op, ErrUnknownShape)
	}

	switch kind {
	case KindGrouped:
		var g GroupedRow
		if err := json.Unmarshal(raw, &g); err != nil {
			return Row{}, fmt.Errorf("%s: decode grouped row: %w", op, err)
		}
		return Row{Kind: KindGrouped, Grouped: &g}, nil
	default:
		var f FlatRow
		if err := json.Unmarshal(raw, &f); err != nil {
			return Row{}, fmt.Errorf("%s: decode flat row: %w", op, err)
		}
		return Row{Kind: KindFlat, Flat: &f}, nil
	}
}

func has(keys map[string]json.RawMessage, key string) bool {
	v, ok := keys[key]
	return ok && string(bytes.TrimSpace(v)) != "null"
}

func first(values ...Text) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
