package cmd

import (
	"context"
	"fmt"

	"einvoice/internal/logger"
	"einvoice/pkg/services"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <invoice-id>...",
	Short: "Issue an e-invoice for each given ERP invoice",
	Long: `Submit each ERP invoice to the tax system. Every id is submitted on its own;
a failure is reported and the remaining ids are still attempted.`,
	Example: `  einvoice submit 10001 10002 --by alice`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSubmit,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <invoice-id> <invoice-id>...",
	Short: "Issue one e-invoice covering several ERP invoices",
	Long: `Merge several ERP invoices of the same customer into a single e-invoice.
The backend rejects the merge as a whole if any invoice cannot be merged.`,
	Example: `  einvoice merge 10002 10007 --by alice`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runMerge,
}

var redNoteCmd = &cobra.Command{
	Use:     "rednote <invoice-id>...",
	Short:   "Issue a red-letter credit note against submitted invoices",
	Example: `  einvoice rednote 10006`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRedNote,
}

func init() {
	for _, c := range []*cobra.Command{submitCmd, mergeCmd, redNoteCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("by", "", "Submitter recorded on the e-invoice (default: EINVOICE_SUBMITTED_BY)")
	}
}

// actionSetup loads config and resolves the submitter for an action command.
func actionSetup(cmd *cobra.Command) (services.ActionService, string, context.Context, context.CancelFunc, error) {
	log := logger.WithComponent(cmd.Name())

	cfg, err := loadConfig()
	if err != nil {
		return nil, "", nil, nil, err
	}

	by, _ := cmd.Flags().GetString("by")
	if by == "" {
		by = cfg.SubmittedBy
	}
	if by == "" {
		return nil, "", nil, nil, fmt.Errorf("no submitter: pass --by or set EINVOICE_SUBMITTED_BY")
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, "", nil, nil, err
	}

	ctx, cancel := createContext(cfg.Timeout()*4, log)
	return client, by, ctx, cancel, nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	actions, by, ctx, cancel, err := actionSetup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	return eachInvoice(ctx, cmd, args, "Submitted", func(id string) error {
		return actions.SubmitInvoice(ctx, id, by)
	})
}

func runRedNote(cmd *cobra.Command, args []string) error {
	actions, by, ctx, cancel, err := actionSetup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	return eachInvoice(ctx, cmd, args, "Red note issued for", func(id string) error {
		return actions.RedNote(ctx, id, by)
	})
}

func runMerge(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("merge")

	actions, by, ctx, cancel, err := actionSetup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	if err := actions.MergeInvoices(ctx, args, by); err != nil {
		log.Error().
			Err(err).
			Strs("ids", args).
			Msg("Failed to merge invoices")
		return fmt.Errorf("failed to merge invoices: %w", err)
	}

	log.Info().
		Strs("ids", args).
		Str("submitted_by", by).
		Msg("Invoices merged")
	fmt.Printf("Merged %d invoices into one e-invoice\n", len(args))
	return nil
}

// eachInvoice runs fn for every id, continuing past failures, and returns an
// error if any id failed.
func eachInvoice(ctx context.Context, cmd *cobra.Command, ids []string, done string, fn func(id string) error) error {
	log := logger.WithComponent(cmd.Name())

	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(id); err != nil {
			failed++
			log.Error().
				Err(err).
				Str("id", id).
				Msg("Invoice action failed")
			fmt.Printf("❌ %s: %v\n", id, err)
			continue
		}
		log.Info().Str("id", id).Msg("Invoice action succeeded")
		fmt.Printf("✅ %s %s\n", done, id)
	}

	if failed > 0 {
		return fmt.Errorf("%s: %d of %d invoices failed", cmd.Name(), failed, len(ids))
	}
	return nil
}
