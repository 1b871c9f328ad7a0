package cmd

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"einvoice/internal/api"
	"einvoice/internal/filter"
	"einvoice/internal/grid"
	"einvoice/internal/logger"
	"einvoice/internal/mockapi"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

func newFilterCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addFilterFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestPatchFromFlags(t *testing.T) {
	c := newFilterCommand(t,
		"--status", "error",
		"--customer", "  ACME ",
		"--has-pdf", "yes",
		"--post-date", "2024-03-01..2024-03-31",
		"--amount", "113.00",
	)

	patch, err := patchFromFlags(c)
	require.NoError(t, err)
	require.Len(t, patch, 5)

	assert.Equal(t, "ERROR", patch[filter.FieldStatus].Text())
	assert.Equal(t, "ACME", patch[filter.FieldCustomerName].Text())
	assert.True(t, patch[filter.FieldHasPDF].Flag())
	assert.Equal(t, filter.DateRange{Start: "2024-03-01", End: "2024-03-31"}, patch[filter.FieldPostDate].DateRange())
	assert.Equal(t, "113", patch[filter.FieldAmount].Decimal().String())
}

func TestPatchFromFlags_SentinelsAreIgnored(t *testing.T) {
	c := newFilterCommand(t, "--status", "all", "--customer", "")

	patch, err := patchFromFlags(c)
	require.NoError(t, err)
	assert.Empty(t, patch)
}

func TestPatchFromFlags_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown status", []string{"--status", "archived"}},
		{"bad date range", []string{"--post-date", "2024-03-01"}},
		{"bad bool", []string{"--has-pdf", "maybe"}},
		{"bad amount", []string{"--amount", "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := patchFromFlags(newFilterCommand(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid value")
		})
	}
}

func newMockClient(t *testing.T) *api.Client {
	t.Helper()
	srv := mockapi.New(mockapi.Seed(30, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := api.NewClient(api.Config{BaseURL: ts.URL + mockapi.BasePath})
	require.NoError(t, err)
	return client
}

func TestFetchPage(t *testing.T) {
	client := newMockClient(t)

	snap, err := fetchPage(context.Background(), client, nil, nil, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, grid.Ready, snap.State)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, 3, snap.PageCount())
	require.Len(t, snap.Rows.Invoices, 10)
	assert.Equal(t, "10011", snap.Rows.Invoices[0].ID)
}

func TestFetchPage_Seeded(t *testing.T) {
	client := newMockClient(t)

	seed := filter.Patch{filter.FieldStatus: filter.Normalize(filter.FieldStatus, "error")}
	snap, err := fetchPage(context.Background(), client, nil, seed, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"10004", "10018", "10025"}, snap.Rows.IDs())
	assert.Equal(t, "ERROR", snap.Committed.Get(filter.FieldStatus).Text())
}

func TestFetchPage_Cancelled(t *testing.T) {
	client := newMockClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetchPage(ctx, client, nil, nil, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToListOutput(t *testing.T) {
	client := newMockClient(t)

	seed := filter.Patch{filter.FieldID: filter.Normalize(filter.FieldID, "10003")}
	snap, err := fetchPage(context.Background(), client, nil, seed, 1, 10)
	require.NoError(t, err)

	out := toListOutput(snap, true)
	require.Len(t, out.Invoices, 1)
	inv := out.Invoices[0]
	assert.Equal(t, "10003", inv.ID)
	assert.Len(t, inv.Lines, 3)
	assert.Equal(t, 1, inv.Lines[0].LineNo)
	assert.NotEmpty(t, out.Totals)

	assert.Empty(t, toListOutput(snap, false).Invoices[0].Lines)
}
