package query_test

import (
	"testing"

	"einvoice/internal/filter"
	"einvoice/internal/query"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		filter   filter.Filter
		page     int
		pageSize int
		want     string
	}{
		{
			name:     "status only",
			filter:   filter.Filter{filter.FieldStatus: filter.StringValue("PENDING")},
			page:     1,
			pageSize: 10,
			want:     "status=PENDING&page=1&limit=10",
		},
		{
			name: "post date range",
			filter: filter.Filter{
				filter.FieldPostDate: filter.RangeValue(filter.DateRange{Start: "2024-01-01", End: "2024-01-31"}),
			},
			page:     1,
			pageSize: 10,
			want:     "startDate=2024-01-01&endDate=2024-01-31&page=1&limit=10",
		},
		{
			name: "partial date range is omitted",
			filter: filter.Filter{
				filter.FieldPostDate: filter.RangeValue(filter.DateRange{Start: "2024-01-01"}),
			},
			page:     1,
			pageSize: 10,
			want:     "page=1&limit=10",
		},
		{
			name: "malformed values are omitted",
			filter: filter.Filter{
				filter.FieldAmount:       filter.StringValue("12abc"),
				filter.FieldEInvoiceDate: filter.StringValue("yesterday"),
				filter.FieldCustomerName: filter.StringValue("ACME"),
			},
			page:     2,
			pageSize: 20,
			want:     "customerName=ACME&page=2&limit=20",
		},
		{
			name: "fields follow column order",
			filter: filter.Filter{
				filter.FieldSubmittedBy: filter.StringValue("li.wei"),
				filter.FieldID:          filter.StringValue("ERP8240"),
				filter.FieldHasPDF:      filter.BoolValue(false),
				filter.FieldAmount:      filter.NumberValue(decimal.RequireFromString("1130.00")),
				filter.FieldType:        filter.StringValue("Special VAT"),
			},
			page:     3,
			pageSize: 50,
			want:     "erpInvoiceId=ERP8240&fapiaoType=Special+VAT&amount=1130&hasPdf=false&submittedBy=li.wei&page=3&limit=50",
		},
		{
			name:     "unknown fields are dropped",
			filter:   filter.Filter{filter.Field("warehouse"): filter.StringValue("W1")},
			page:     1,
			pageSize: 10,
			want:     "page=1&limit=10",
		},
		{
			name:     "cursor is clamped",
			filter:   nil,
			page:     0,
			pageSize: -5,
			want:     "page=1&limit=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.Build(tt.filter, tt.page, tt.pageSize)
			assert.Equal(t, tt.want, got.Encode())
		})
	}
}

func TestBuild_IsIdempotent(t *testing.T) {
	f := filter.Filter{
		filter.FieldStatus:       filter.StringValue("ERROR"),
		filter.FieldCustomerName: filter.StringValue("ACME"),
		filter.FieldPostDate:     filter.RangeValue(filter.DateRange{Start: "2024-01-01", End: "2024-01-31"}),
	}

	first := query.Build(f, 4, 25)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, query.Build(f, 4, 25))
	}
}

func TestBuild_AbsentFieldsNeverAppear(t *testing.T) {
	f := filter.Filter{filter.FieldStatus: filter.StringValue("SUBMITTED")}
	params := query.Build(f, 1, 10)

	assert.Equal(t, []string{"status", "page", "limit"}, params.Keys())
	_, ok := params.Get("customerName")
	assert.False(t, ok)
}

func TestParams_Values(t *testing.T) {
	params := query.Build(filter.Filter{filter.FieldComment: filter.StringValue("a&b")}, 1, 10)

	values := params.Values()
	assert.Equal(t, "a&b", values.Get("comment"))
	assert.Equal(t, "comment=a%26b&page=1&limit=10", params.Encode())
}
