package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"einvoice/internal/logger"
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func init() {
	logger.Silence()
}

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestToRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := ToRows([]models.Invoice{
		{
			ID:        "8240",
			Amount:    decimal.RequireFromString("1130.50"),
			Status:    models.StatusSubmitted,
			PDFReady:  true,
			LineItems: make([]models.LineItem, 3),
		},
	}, at)

	require.Len(t, rows, 1)
	assert.Equal(t, "8240", rows[0].InvoiceID)
	assert.True(t, decimal.RequireFromString("1130.5").Equal(rows[0].Amount))
	assert.Equal(t, 1130.5, rows[0].values()[4])
	assert.Equal(t, "SUBMITTED", rows[0].Status)
	assert.Equal(t, "yes", rows[0].PDF)
	assert.Equal(t, 3, rows[0].Lines)
	assert.Equal(t, "2024-03-01 09:30:00", rows[0].PublishedAt)
	assert.Len(t, rows[0].values(), len(headers))
}

func TestPublishInvoices(t *testing.T) {
	var (
		mu       sync.Mutex
		appended [][]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/sheet123":
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet123","sheets":[{"properties":{"title":"Invoices","sheetId":7}}]}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet123/values/"):
			_, _ = w.Write([]byte(`{"range":"Invoices!A1:N1","values":[["Invoice"]]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			var body struct {
				Values [][]any `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			appended = append(appended, body.Values...)
			mu.Unlock()
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet123"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc, err := NewWithOptions(context.Background(), "https://docs.google.com/spreadsheets/d/sheet123/edit",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	n, err := svc.PublishInvoices(context.Background(), []models.Invoice{
		{ID: "1", Amount: decimal.NewFromInt(10)},
		{ID: "2", Amount: decimal.NewFromInt(20)},
	}, "Invoices")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, appended, 2)
	assert.Equal(t, "1", appended[0][0])
	assert.Equal(t, "2", appended[1][0])
	assert.Equal(t, float64(20), appended[1][4])
}

func TestPublishInvoices_NothingToDo(t *testing.T) {
	svc := &Service{log: logger.WithComponent("sheets"), now: time.Now}
	n, err := svc.PublishInvoices(context.Background(), nil, "Invoices")
	require.NoError(t, err)
	assert.Zero(t, n)
}
