package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"einvoice/internal/api"
	"einvoice/internal/config"
	"einvoice/internal/datasource"
	"einvoice/internal/filter"
	"einvoice/internal/grid"
	"einvoice/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// filterFlags maps command line flags to grid filter fields.
var filterFlags = []struct {
	name  string
	field filter.Field
	usage string
}{
	{"post-date", filter.FieldPostDate, "Post date range, YYYY-MM-DD..YYYY-MM-DD"},
	{"id", filter.FieldID, "ERP invoice id"},
	{"type", filter.FieldType, "Fapiao type"},
	{"customer", filter.FieldCustomerName, "Customer name"},
	{"amount", filter.FieldAmount, "Invoice amount including tax"},
	{"comment", filter.FieldComment, "Comment text"},
	{"status", filter.FieldStatus, "Status: PENDING, SUBMITTED, ERROR or RED_NOTE"},
	{"einvoice-id", filter.FieldEInvoiceID, "E-invoice id"},
	{"has-pdf", filter.FieldHasPDF, "Whether an e-invoice PDF exists (yes/no)"},
	{"einvoice-date", filter.FieldEInvoiceDate, "E-invoice date range, YYYY-MM-DD..YYYY-MM-DD"},
	{"submitted-by", filter.FieldSubmittedBy, "Submitter"},
	{"order", filter.FieldOrderNum, "Sales order number"},
}

func addFilterFlags(cmd *cobra.Command) {
	for _, f := range filterFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
}

// patchFromFlags turns the filter flags the user set into a patch. A value
// the codec rejects is reported instead of being silently dropped.
func patchFromFlags(cmd *cobra.Command) (filter.Patch, error) {
	flags := cmd.Flags()
	patch := filter.Patch{}
	for _, f := range filterFlags {
		if !flags.Changed(f.name) {
			continue
		}
		raw, _ := flags.GetString(f.name)
		v := filter.Normalize(f.field, raw)
		if v.IsAbsent() {
			if isSentinel(raw) {
				continue
			}
			return nil, fmt.Errorf("invalid value %q for --%s", raw, f.name)
		}
		patch[f.field] = v
	}
	return patch, nil
}

func isSentinel(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.EqualFold(raw, "all") || strings.EqualFold(raw, "viewAll")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newAPIClient(cfg *config.Config) (*api.Client, error) {
	client, err := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// createContext returns a context cancelled on SIGINT/SIGTERM and, when
// timeout is positive, after timeout.
func createContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// fetchPage runs a headless grid for one page and returns its final state.
func fetchPage(ctx context.Context, q datasource.Querier, m *metrics.FetchMetrics, seed filter.Patch, page, limit int) (grid.Snapshot, error) {
	g := grid.New(datasource.NewSource(q), grid.Config{PageSize: limit, Metrics: m})
	defer g.Close()

	stop := context.AfterFunc(ctx, g.Close)
	defer stop()

	g.Start(seed)
	if page > 1 {
		g.SetPage(page)
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return grid.Snapshot{}, err
	}
	snap := g.Snapshot()
	if snap.State == grid.Error {
		return snap, snap.Err
	}
	return snap, nil
}
