// Package filter holds the canonical filter model of the invoice grid.
//
// A filter maps a Field to a normalised Value. Raw input from the filter row,
// the status sidebar or the command line is run through Normalize, which
// turns empty, malformed or sentinel input into an absent value. Absent
// values never live inside a Filter.
//
// Store keeps two filters: the local one, updated synchronously on every edit,
// and the committed one, which drives network fetches and is only updated
// after the debounce window settles or on an explicit commit.
package filter

import "strings"

// Field names a filterable grid column.
type Field string

const (
	FieldPostDate     Field = "postDate"
	FieldID           Field = "id"
	FieldType         Field = "type"
	FieldCustomerName Field = "customerName"
	FieldAmount       Field = "amount"
	FieldComment      Field = "comment"
	FieldStatus       Field = "status"
	FieldEInvoiceID   Field = "einvoiceId"
	FieldHasPDF       Field = "hasPdf"
	FieldEInvoiceDate Field = "einvoiceDate"
	FieldSubmittedBy  Field = "submittedBy"
	FieldOrderNum     Field = "orderNum"
)

// Category selects the normalisation and encoding rule of a field.
type Category uint8

const (
	CategoryIdentifier Category = iota + 1 // exact numeric-or-string match
	CategoryText                           // exact trimmed string
	CategoryDateRange                      // inclusive {start, end}
	CategoryStatus                         // invoice status enum
	CategoryBool                           // tri-state boolean
	CategoryNumber                         // exact numeric
)

type fieldSpec struct {
	category Category
	keys     []string // backend query keys; date ranges use two
}

var specs = map[Field]fieldSpec{
	FieldPostDate:     {CategoryDateRange, []string{"startDate", "endDate"}},
	FieldID:           {CategoryIdentifier, []string{"erpInvoiceId"}},
	FieldType:         {CategoryText, []string{"fapiaoType"}},
	FieldCustomerName: {CategoryText, []string{"customerName"}},
	FieldAmount:       {CategoryNumber, []string{"amount"}},
	FieldComment:      {CategoryText, []string{"comment"}},
	FieldStatus:       {CategoryStatus, []string{"status"}},
	FieldEInvoiceID:   {CategoryIdentifier, []string{"eInvoiceId"}},
	FieldHasPDF:       {CategoryBool, []string{"hasPdf"}},
	FieldEInvoiceDate: {CategoryDateRange, []string{"eInvoiceStartDate", "eInvoiceEndDate"}},
	FieldSubmittedBy:  {CategoryText, []string{"submittedBy"}},
	FieldOrderNum:     {CategoryIdentifier, []string{"orderNum"}},
}

// Fields lists every recognised field in grid column order. Query parameters
// are emitted in this order.
var Fields = []Field{
	FieldPostDate,
	FieldID,
	FieldType,
	FieldCustomerName,
	FieldAmount,
	FieldComment,
	FieldStatus,
	FieldEInvoiceID,
	FieldHasPDF,
	FieldEInvoiceDate,
	FieldSubmittedBy,
	FieldOrderNum,
}

// Known reports whether f is a recognised field.
func (f Field) Known() bool {
	_, ok := specs[f]
	return ok
}

// Category returns the encoding category of f, or 0 for unknown fields.
func (f Field) Category() Category {
	return specs[f].category
}

// Keys returns the backend query keys of f.
func (f Field) Keys() []string {
	return specs[f].keys
}

// ParseField resolves a field name case-insensitively.
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range Fields {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}
