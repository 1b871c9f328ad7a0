package filter_test

import (
	"testing"

	"einvoice/internal/filter"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_EmptyIsAbsent(t *testing.T) {
	for _, field := range filter.Fields {
		t.Run(string(field), func(t *testing.T) {
			assert.True(t, filter.Normalize(field, "").IsAbsent(), "empty string")
			assert.True(t, filter.Normalize(field, nil).IsAbsent(), "nil")
			assert.True(t, filter.Normalize(field, "   ").IsAbsent(), "blank")
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		field filter.Field
		raw   any
		want  filter.Value
	}{
		{"id keeps string", filter.FieldID, " ERP8240 ", filter.StringValue("ERP8240")},
		{"id keeps leading zeros", filter.FieldID, "000123", filter.StringValue("000123")},
		{"id from number", filter.FieldID, 8240, filter.StringValue("8240")},
		{"id from float", filter.FieldEInvoiceID, float64(1234567), filter.StringValue("1234567")},
		{"order number", filter.FieldOrderNum, "SO-1", filter.StringValue("SO-1")},
		{"customer trimmed", filter.FieldCustomerName, "  ACME Ltd ", filter.StringValue("ACME Ltd")},
		{"type sentinel", filter.FieldType, "All", filter.Absent()},
		{"type value", filter.FieldType, "Special VAT", filter.StringValue("Special VAT")},
		{"comment", filter.FieldComment, "urgent", filter.StringValue("urgent")},
		{"status enum", filter.FieldStatus, "PENDING", filter.StringValue("PENDING")},
		{"status lower", filter.FieldStatus, "error", filter.StringValue("ERROR")},
		{"status sidebar id", filter.FieldStatus, "redNote", filter.StringValue("RED_NOTE")},
		{"status all", filter.FieldStatus, "All", filter.Absent()},
		{"status view all", filter.FieldStatus, "viewAll", filter.Absent()},
		{"status unknown", filter.FieldStatus, "ARCHIVED", filter.Absent()},
		{"hasPdf true", filter.FieldHasPDF, true, filter.BoolValue(true)},
		{"hasPdf explicit false", filter.FieldHasPDF, false, filter.BoolValue(false)},
		{"hasPdf yes", filter.FieldHasPDF, "Yes", filter.BoolValue(true)},
		{"hasPdf no", filter.FieldHasPDF, "no", filter.BoolValue(false)},
		{"hasPdf garbage", filter.FieldHasPDF, "maybe", filter.Absent()},
		{"amount string", filter.FieldAmount, "1130.00", filter.NumberValue(decimal.RequireFromString("1130"))},
		{"amount int", filter.FieldAmount, 42, filter.NumberValue(decimal.NewFromInt(42))},
		{"amount non numeric", filter.FieldAmount, "12abc", filter.Absent()},
		{"amount bool", filter.FieldAmount, true, filter.Absent()},
		{
			"post date struct",
			filter.FieldPostDate,
			filter.DateRange{Start: "2024-01-01", End: "2024-01-31"},
			filter.RangeValue(filter.DateRange{Start: "2024-01-01", End: "2024-01-31"}),
		},
		{
			"post date map",
			filter.FieldPostDate,
			map[string]any{"start": "2024-01-01", "end": "2024-01-31"},
			filter.RangeValue(filter.DateRange{Start: "2024-01-01", End: "2024-01-31"}),
		},
		{
			"einvoice date string",
			filter.FieldEInvoiceDate,
			"2024-02-01..2024-02-29",
			filter.RangeValue(filter.DateRange{Start: "2024-02-01", End: "2024-02-29"}),
		},
		{"post date missing end", filter.FieldPostDate, map[string]any{"start": "2024-01-01"}, filter.Absent()},
		{"post date missing start", filter.FieldPostDate, filter.DateRange{End: "2024-01-31"}, filter.Absent()},
		{"post date malformed", filter.FieldPostDate, "2024-13-01..2024-13-31", filter.Absent()},
		{"post date with time", filter.FieldPostDate, "2024-01-01T00:00:00Z,2024-01-02", filter.Absent()},
		{"unknown field", filter.Field("warehouse"), "W1", filter.Absent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Normalize(tt.field, tt.raw)
			assert.Truef(t, tt.want.Equal(got), "Normalize(%s, %v) = %q (kind %d), want %q", tt.field, tt.raw, got, got.Kind(), tt.want)
		})
	}
}

func TestNormalize_AcceptsNormalizedValue(t *testing.T) {
	v := filter.Normalize(filter.FieldPostDate, "2024-01-01..2024-01-31")
	assert.True(t, v.Equal(filter.Normalize(filter.FieldPostDate, v)))

	// A value of the wrong kind for the field does not survive.
	assert.True(t, filter.Normalize(filter.FieldAmount, filter.StringValue("abc")).IsAbsent())
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		field filter.Field
		value filter.Value
		want  []filter.Param
	}{
		{"id", filter.FieldID, filter.StringValue("ERP1"), []filter.Param{{Key: "erpInvoiceId", Value: "ERP1"}}},
		{"customer", filter.FieldCustomerName, filter.StringValue("ACME"), []filter.Param{{Key: "customerName", Value: "ACME"}}},
		{
			"post date",
			filter.FieldPostDate,
			filter.RangeValue(filter.DateRange{Start: "2024-01-01", End: "2024-01-31"}),
			[]filter.Param{{Key: "startDate", Value: "2024-01-01"}, {Key: "endDate", Value: "2024-01-31"}},
		},
		{
			"einvoice date",
			filter.FieldEInvoiceDate,
			filter.RangeValue(filter.DateRange{Start: "2024-02-01", End: "2024-02-02"}),
			[]filter.Param{{Key: "eInvoiceStartDate", Value: "2024-02-01"}, {Key: "eInvoiceEndDate", Value: "2024-02-02"}},
		},
		{"hasPdf false is sent", filter.FieldHasPDF, filter.BoolValue(false), []filter.Param{{Key: "hasPdf", Value: "false"}}},
		{"amount", filter.FieldAmount, filter.NumberValue(decimal.RequireFromString("99.50")), []filter.Param{{Key: "amount", Value: "99.5"}}},
		{"status", filter.FieldStatus, filter.StringValue("PENDING"), []filter.Param{{Key: "status", Value: "PENDING"}}},
		{"absent", filter.FieldComment, filter.Absent(), nil},
		{"wrong kind dropped", filter.FieldAmount, filter.StringValue("abc"), nil},
		{"unknown field", filter.Field("warehouse"), filter.StringValue("W1"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Encode(tt.field, tt.value))
		})
	}
}

func TestParseField(t *testing.T) {
	f, ok := filter.ParseField("CustomerName")
	assert.True(t, ok)
	assert.Equal(t, filter.FieldCustomerName, f)

	_, ok = filter.ParseField("warehouse")
	assert.False(t, ok)
}

func TestFilter_SetRemovesAbsent(t *testing.T) {
	f := filter.Filter{}
	f.Set(filter.FieldComment, filter.StringValue("x"))
	f.Set(filter.FieldComment, filter.Absent())
	_, ok := f[filter.FieldComment]
	assert.False(t, ok)
}
