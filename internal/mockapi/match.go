package mockapi

import (
	"net/url"
	"strconv"
	"strings"

	"einvoice/internal/filter"
	"einvoice/internal/query"
	"einvoice/pkg/models"
)

// filterFromQuery reads the backend query keys back into a filter, running
// every value through the same codec the client uses.
func filterFromQuery(q url.Values) filter.Filter {
	f := filter.Filter{}
	for _, field := range filter.Fields {
		keys := field.Keys()
		if field.Category() == filter.CategoryDateRange {
			f.Set(field, filter.Normalize(field, [2]string{q.Get(keys[0]), q.Get(keys[1])}))
			continue
		}
		if !q.Has(keys[0]) {
			continue
		}
		f.Set(field, filter.Normalize(field, q.Get(keys[0])))
	}
	return f
}

func pageFromQuery(q url.Values) (page, limit int) {
	page, _ = strconv.Atoi(q.Get(query.PageKey))
	limit, _ = strconv.Atoi(q.Get(query.LimitKey))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = query.DefaultPageSize
	}
	return page, limit
}

// matches reports whether inv satisfies every entry of f. Text fields match
// case-insensitive substrings, the fapiao type matches exactly.
func matches(inv *models.Invoice, f filter.Filter) bool {
	for field, v := range f {
		if !matchField(inv, field, v) {
			return false
		}
	}
	return true
}

func matchField(inv *models.Invoice, field filter.Field, v filter.Value) bool {
	switch field {
	case filter.FieldID:
		return inv.ID == v.Text()
	case filter.FieldEInvoiceID:
		return inv.EInvoiceID == v.Text()
	case filter.FieldOrderNum:
		return inv.OrderNum == v.Text()
	case filter.FieldType:
		return strings.EqualFold(inv.Type, v.Text())
	case filter.FieldCustomerName:
		return containsFold(inv.CustomerName, v.Text())
	case filter.FieldComment:
		return containsFold(inv.Comment, v.Text())
	case filter.FieldSubmittedBy:
		return containsFold(inv.SubmittedBy, v.Text())
	case filter.FieldAmount:
		return inv.Amount.Equal(v.Decimal())
	case filter.FieldStatus:
		return string(inv.Status) == v.Text()
	case filter.FieldHasPDF:
		return inv.HasPDF() == v.Flag()
	case filter.FieldPostDate:
		return inRange(inv.PostDate, v.DateRange())
	case filter.FieldEInvoiceDate:
		return inRange(inv.EInvoiceDate, v.DateRange())
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// inRange compares ISO dates as strings; both ends are inclusive.
func inRange(date string, r filter.DateRange) bool {
	if len(date) > 10 {
		date = date[:10]
	}
	return date != "" && date >= r.Start && date <= r.End
}
