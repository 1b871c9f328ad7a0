package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"einvoice/internal/export"
	"einvoice/pkg/services"

	tea "github.com/charmbracelet/bubbletea"
)

var errNothingSelected = errors.New("no invoice selected")

// runAction starts verb on the selection as a tea.Cmd. The grid is refreshed
// when the result comes back, never before.
func (m *Model) runAction(verb string) tea.Cmd {
	ids := m.targets()
	if len(ids) == 0 {
		m.flash = verb + ": " + errNothingSelected.Error()
		return nil
	}
	if m.actions == nil {
		m.flash = verb + ": no backend configured"
		return nil
	}

	m.busy = true
	m.flash = fmt.Sprintf("%s: %d invoice(s)...", verb, len(ids))

	ctx, actions, by := m.ctx, m.actions, m.submittedBy
	dir, stamp := m.exportDir, m.now().Format("20060102-150405")
	log := m.log

	return func() tea.Msg {
		done := actionDoneMsg{verb: verb}
		switch verb {
		case "submit":
			for _, id := range ids {
				if err := actions.SubmitInvoice(ctx, id, by); err != nil {
					done.err = fmt.Errorf("%s: %w", id, err)
					break
				}
			}
			done.detail = fmt.Sprintf("%d invoice(s)", len(ids))
		case "merge":
			done.err = actions.MergeInvoices(ctx, ids, by)
			done.detail = fmt.Sprintf("%d invoice(s)", len(ids))
		case "red note":
			for _, id := range ids {
				if err := actions.RedNote(ctx, id, by); err != nil {
					done.err = fmt.Errorf("%s: %w", id, err)
					break
				}
			}
		case "export":
			done.detail, done.err = saveExport(ctx, actions, ids, dir, stamp)
		}

		if done.err != nil {
			log.Warn().Err(done.err).Str("action", verb).Strs("invoice_ids", ids).Msg("Action failed")
		} else {
			log.Info().Str("action", verb).Strs("invoice_ids", ids).Msg("Action completed")
		}
		return done
	}
}

// saveExport writes the export blob to dir and describes what it holds.
func saveExport(ctx context.Context, actions services.ActionService, ids []string, dir, stamp string) (string, error) {
	blob, err := actions.ExportInvoices(ctx, ids)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "invoices-"+stamp+".xlsx")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	sheets, err := export.Inspect(blob)
	if err != nil {
		return path + " (unreadable workbook)", nil
	}
	rows := 0
	if len(sheets) > 0 {
		rows = sheets[0].Rows
	}
	return fmt.Sprintf("%s (%d rows)", path, rows), nil
}
