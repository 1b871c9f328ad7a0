package transform_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"einvoice/internal/logger"
	"einvoice/internal/transform"
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

func items(t *testing.T, payload string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    transform.RowKind
		wantErr error
	}{
		{name: "grouped with details", raw: `{"id":1,"invoiceDetails":[]}`, want: transform.KindGrouped},
		{name: "grouped without details", raw: `{"erpInvoiceId":"8240","amount":10}`, want: transform.KindGrouped},
		{name: "flat line", raw: `{"invoiceNum":"8240","partNo":"P-1"}`, want: transform.KindFlat},
		{name: "details win over invoice number", raw: `{"invoiceNum":"8240","invoiceDetails":[]}`, want: transform.KindGrouped},
		{name: "null keys do not count", raw: `{"invoiceNum":null,"customerName":"ACME"}`, wantErr: transform.ErrUnknownShape},
		{name: "unknown shape", raw: `{"foo":"bar"}`, wantErr: transform.ErrUnknownShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := transform.Detect(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.Kind)
			assert.Equal(t, tt.want == transform.KindGrouped, row.Grouped != nil)
			assert.Equal(t, tt.want == transform.KindFlat, row.Flat != nil)
		})
	}
}

func TestDetect_NotAnObject(t *testing.T) {
	_, err := transform.Detect(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestTransform_FlatRowsGroupIntoOneInvoice(t *testing.T) {
	raw := items(t, `[
		{"invoiceNum":"8240","customerName":"ACME","postDate":"2024-01-05","partNo":"A","quantity":2,"unitPrice":"50.00","lineAmount":"100.00","taxRate":13},
		{"invoiceNum":"8240","partNo":"B","quantity":"1","unitPrice":33.33,"lineAmount":33.33,"taxRate":"13"},
		{"invoiceNum":"8240","partNo":"C","quantity":3,"unitPrice":"10","taxRate":6}
	]`)

	got := transform.Transform(raw)
	require.Len(t, got, 1)

	inv := got[0]
	assert.Equal(t, "8240", inv.ID)
	assert.Equal(t, "ACME", inv.CustomerName)
	assert.Equal(t, "2024-01-05", inv.PostDate)
	require.Len(t, inv.LineItems, 3)
	for i, li := range inv.LineItems {
		assert.Equal(t, i+1, li.LineNo)
	}
	assert.Equal(t, []string{"A", "B", "C"}, []string{inv.LineItems[0].PartNo, inv.LineItems[1].PartNo, inv.LineItems[2].PartNo})

	// third line has no lineAmount: 3 x 10
	assert.True(t, decimal.RequireFromString("30").Equal(inv.LineItems[2].Subtotal))
	assert.True(t, decimal.RequireFromString("4.33").Equal(inv.LineItems[1].TaxTotal))

	// 100 + 13 + 33.33 + 4.33 + 30 + 1.80
	assert.Equal(t, "182.46", inv.Amount.StringFixed(2))
}

func TestTransform_AmountMatchesLineTotals(t *testing.T) {
	for n := 1; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d lines", n), func(t *testing.T) {
			rows := make([]map[string]any, 0, n)
			for i := 0; i < n; i++ {
				rows = append(rows, map[string]any{
					"invoiceNum":    "INV-1",
					"invoiceAmount": 999999,
					"partNo":        fmt.Sprintf("P%d", i),
					"quantity":      i + 1,
					"unitPrice":     "17",
					"lineAmount":    decimal.NewFromInt(17).Mul(decimal.NewFromInt(int64(i + 1))).String(),
					"taxRate":       []int{13, 9, 6, 0}[i%4],
				})
			}
			b, err := json.Marshal(rows)
			require.NoError(t, err)

			got := transform.Transform(items(t, string(b)))
			require.Len(t, got, 1)
			require.Len(t, got[0].LineItems, n)

			subtotal, tax := decimal.Zero, decimal.Zero
			for i, li := range got[0].LineItems {
				assert.Equal(t, i+1, li.LineNo)
				subtotal = subtotal.Add(li.Subtotal)
				tax = tax.Add(li.Subtotal.Mul(li.TaxRate).Div(decimal.NewFromInt(100)))
			}
			diff := got[0].Amount.Sub(subtotal.Add(tax)).Abs()
			assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.01")), "amount %s, lines %s", got[0].Amount, subtotal.Add(tax))
		})
	}
}

func TestTransform_GroupedRow(t *testing.T) {
	raw := items(t, `[{
		"id": 8240,
		"orderNum": "SO-1",
		"postDate": "2024-02-01",
		"fapiaoType": "Special VAT",
		"customerName": "ACME",
		"amount": "1.00",
		"comment": "",
		"eInvoiceId": "EI-99",
		"eInvoiceDate": "2024-02-03",
		"submittedBy": "li.wei",
		"eInvoicePdf": "https://example.test/ei-99.pdf",
		"invoiceDetails": [
			{"partNo":"A","description":"Widget","qty":"2","uom":"EA","unitPrice":"500","subtotal":"1000","taxRate":"13"}
		]
	}]`)

	got := transform.Transform(raw)
	require.Len(t, got, 1)

	inv := got[0]
	assert.Equal(t, "8240", inv.ID)
	assert.Equal(t, "Special VAT", inv.Type)
	assert.Equal(t, "EI-99", inv.EInvoiceID)
	assert.Equal(t, "https://example.test/ei-99.pdf", inv.PDFURL)
	assert.Equal(t, models.StatusSubmitted, inv.Status)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, 1, inv.LineItems[0].LineNo)
	assert.Equal(t, "Widget", inv.LineItems[0].Description)
	assert.Equal(t, "130.00", inv.LineItems[0].TaxTotal.StringFixed(2))
	// the stale top-level amount is replaced
	assert.Equal(t, "1130.00", inv.Amount.StringFixed(2))
}

func TestTransform_GroupedRowWithoutDetailsKeepsAmount(t *testing.T) {
	got := transform.Transform(items(t, `[{"erpInvoiceId":"000123","amount":"88.50","hasPdf":true}]`))
	require.Len(t, got, 1)
	assert.Equal(t, "000123", got[0].ID)
	assert.Equal(t, "88.50", got[0].Amount.StringFixed(2))
	assert.Empty(t, got[0].LineItems)
	assert.True(t, got[0].HasPDF())
	assert.Equal(t, models.StatusSubmitted, got[0].Status)
}

func TestTransform_MixedAndMalformed(t *testing.T) {
	raw := items(t, `[
		{"invoiceNum":"A","partNo":"1","lineAmount":10},
		"not an object",
		{"erpInvoiceId":"B","amount":5},
		{"mystery":true},
		{"invoiceNum":"A","partNo":"2","lineAmount":20},
		{"invoiceNum":"C","partNo":"1","lineAmount":"n/a","quantity":2,"unitPrice":2.5}
	]`)

	got := transform.Transform(raw)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, got[0].LineItems, 2)
	assert.Equal(t, "30.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, "5.00", got[2].Amount.StringFixed(2))
}

func TestTransform_Empty(t *testing.T) {
	assert.Empty(t, transform.Transform(nil))
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name       string
		explicit   string
		eInvoiceID string
		hasPDF     bool
		comment    string
		want       models.Status
	}{
		{name: "explicit wins", explicit: "RED_NOTE", eInvoiceID: "EI-1", want: models.StatusRedNote},
		{name: "explicit is case-insensitive", explicit: "error", want: models.StatusError},
		{name: "invalid explicit falls through", explicit: "DRAFT", want: models.StatusPending},
		{name: "e-invoice id means submitted", eInvoiceID: "EI-1", comment: "error", want: models.StatusSubmitted},
		{name: "pdf means submitted", hasPDF: true, want: models.StatusSubmitted},
		{name: "error comment", comment: "Tax bureau ERROR 302", want: models.StatusError},
		{name: "red note comment", comment: "Red note requested", want: models.StatusRedNote},
		{name: "error beats red", comment: "red note error", want: models.StatusError},
		{name: "plain comment", comment: "deliver Monday", want: models.StatusPending},
		{name: "nothing", want: models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.DeriveStatus(tt.explicit, tt.eInvoiceID, tt.hasPDF, tt.comment))
		})
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var v struct {
		A transform.Number `json:"a"`
		B transform.Number `json:"b"`
		C transform.Number `json:"c"`
		D transform.Number `json:"d"`
		E transform.Number `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"1,130.00","c":"","d":null,"e":"abc"}`), &v))

	assert.True(t, v.A.Valid)
	assert.Equal(t, "12.5", v.A.Value.String())
	assert.True(t, v.B.Valid)
	assert.Equal(t, "1130", v.B.Value.String())
	assert.False(t, v.C.Valid)
	assert.False(t, v.D.Valid)
	assert.False(t, v.E.Valid)
}
