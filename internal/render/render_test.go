package render_test

import (
	"errors"
	"strings"
	"testing"

	"einvoice/internal/filter"
	"einvoice/internal/render"
	"einvoice/internal/theme"
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func samplePage() models.Page {
	return models.Page{
		Total: 2,
		Invoices: []models.Invoice{
			{ID: "8240", PostDate: "2024-01-05", CustomerName: "ACME", Amount: decimal.RequireFromString("1130"), Status: models.StatusPending},
			{ID: "8241", PostDate: "2024-01-06", CustomerName: "Globex", Amount: decimal.RequireFromString("99.5"), Status: models.StatusSubmitted, PDFURL: "x.pdf"},
		},
	}
}

func TestPage(t *testing.T) {
	r := render.New(theme.Default)
	out := r.Page(samplePage(), 1, func(id string) bool { return id == "8240" })

	for _, want := range []string{"Post Date", "8240", "ACME", "1130.00", "Globex", "99.50", "Submitted", "PDF", "[x]", ">[ ]"} {
		assert.Contains(t, out, want)
	}
}

func TestPage_Empty(t *testing.T) {
	out := render.New(theme.Default).Page(models.Page{}, -1, nil)
	assert.Contains(t, out, "No invoices")
}

func TestLines(t *testing.T) {
	r := render.New(theme.Default)
	inv := models.Invoice{
		ID:     "8240",
		Amount: decimal.RequireFromString("1130"),
		LineItems: []models.LineItem{{
			LineNo:    1,
			PartNo:    "A",
			Quantity:  decimal.NewFromInt(2),
			UOM:       "EA",
			UnitPrice: decimal.NewFromInt(500),
			Subtotal:  decimal.NewFromInt(1000),
			TaxRate:   decimal.NewFromInt(13),
			TaxTotal:  decimal.NewFromInt(130),
		}},
	}

	out := r.Lines(inv)
	for _, want := range []string{"2 EA", "500.00", "1000.00", "13%", "130.00", "1130.00"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, r.Lines(models.Invoice{ID: "9"}), "no line items")
}

func TestSidebar(t *testing.T) {
	r := render.New(theme.Default)
	out := r.Sidebar(map[models.Status]int{models.StatusPending: 7, models.StatusError: 2}, 9, models.StatusError)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], "View All")
	assert.Contains(t, lines[0], "9")
	assert.Contains(t, lines[3], "> Error")
}

func TestFilters(t *testing.T) {
	r := render.New(theme.Default)
	assert.Contains(t, r.Filters(nil, nil), "No filters")

	committed := filter.Filter{filter.FieldStatus: filter.StringValue("PENDING")}
	local := committed.Clone()
	local.Set(filter.FieldCustomerName, filter.StringValue("ACME"))

	out := r.Filters(local, committed)
	assert.Contains(t, out, "status=PENDING")
	assert.Contains(t, out, "customerName=ACME (pending)")
}

func TestErrorAndFooter(t *testing.T) {
	r := render.New(theme.Default)
	assert.Empty(t, r.Error(nil))
	assert.Contains(t, r.Error(errors.New("boom")), "boom")
	assert.Contains(t, r.Footer(2, 5, 48, 3), "Page 2 of 5")
}
