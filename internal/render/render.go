// Package render draws invoice pages, the status sidebar and line item
// details for the terminal.
package render

import (
	"fmt"
	"strings"

	"einvoice/internal/filter"
	"einvoice/internal/theme"
	"einvoice/pkg/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Renderer holds the styles derived from one theme.
type Renderer struct {
	theme    theme.Theme
	header   lipgloss.Style
	cell     lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	active   lipgloss.Style
	errStyle lipgloss.Style
	border   lipgloss.Style
}

// New creates a renderer for th.
func New(th theme.Theme) *Renderer {
	return &Renderer{
		theme: th,
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(th.TextOnPrimary)).
			Background(lipgloss.Color(th.Primary)).
			Padding(0, 1),
		cell:     lipgloss.NewStyle().Padding(0, 1),
		selected: lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color(th.SecondaryContainer)).Foreground(lipgloss.Color(th.InverseSurface)),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Primary)),
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		border:   lipgloss.NewStyle().Foreground(lipgloss.Color(th.InversePrimary)),
	}
}

// Columns are the grid headers in display order.
var Columns = []string{"", "Post Date", "Invoice", "Type", "Customer", "Amount", "Comment", "Status", "E-Invoice", "PDF", "E-Invoice Date", "Submitted By", "Order"}

// Page renders the invoices as a table. cursor marks the focused row (-1 for
// none) and isSelected marks checked rows.
func (r *Renderer) Page(page models.Page, cursor int, isSelected func(id string) bool) string {
	if page.Empty() {
		return r.muted.Render("No invoices match the current filters.")
	}

	rows := make([][]string, 0, len(page.Invoices))
	for i := range page.Invoices {
		inv := &page.Invoices[i]
		check := "[ ]"
		if isSelected != nil && isSelected(inv.ID) {
			check = "[x]"
		}
		if i == cursor {
			check = ">" + check
		}
		pdf := ""
		if inv.HasPDF() {
			pdf = "PDF"
		}
		rows = append(rows, []string{
			check,
			inv.PostDate,
			inv.ID,
			inv.Type,
			inv.CustomerName,
			inv.Amount.StringFixed(2),
			truncate(inv.Comment, 24),
			inv.Status.Label(),
			inv.EInvoiceID,
			pdf,
			inv.EInvoiceDate,
			inv.SubmittedBy,
			inv.OrderNum,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.border).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			if row >= 0 && row < len(page.Invoices) && isSelected != nil && isSelected(page.Invoices[row].ID) {
				return r.selected
			}
			if col == 7 && row >= 0 && row < len(page.Invoices) {
				return r.cell.Foreground(lipgloss.Color(r.theme.StatusColor(page.Invoices[row].Status)))
			}
			return r.cell
		})
	return t.Render()
}

// Lines renders the line items of one invoice.
func (r *Renderer) Lines(inv models.Invoice) string {
	if len(inv.LineItems) == 0 {
		return r.muted.Render(fmt.Sprintf("Invoice %s has no line items.", inv.ID))
	}

	rows := make([][]string, 0, len(inv.LineItems)+1)
	for _, li := range inv.LineItems {
		rows = append(rows, []string{
			fmt.Sprint(li.LineNo),
			li.PartNo,
			li.Description,
			li.Quantity.String() + " " + li.UOM,
			li.UnitPrice.StringFixed(2),
			li.Subtotal.StringFixed(2),
			li.TaxRate.String() + "%",
			li.TaxTotal.StringFixed(2),
		})
	}
	rows = append(rows, []string{"", "", "Total", "", "", "", "", inv.Amount.StringFixed(2)})

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.border).
		Headers("Line", "Part", "Description", "Qty", "Unit Price", "Subtotal", "Tax Rate", "Tax").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		}).
		Render()
}

// Sidebar renders the status list with counts. active is the selected
// status; empty means View All.
func (r *Renderer) Sidebar(totals map[models.Status]int, all int, active models.Status) string {
	var b strings.Builder
	entry := func(label string, n int, on bool) {
		line := fmt.Sprintf("%-10s %5d", label, n)
		if on {
			b.WriteString(r.active.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}

	entry(models.Status("").Label(), all, active == "")
	for _, s := range models.Statuses {
		entry(s.Label(), totals[s], active == s)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Filters summarises the committed filter, flagging local edits that have
// not been committed yet.
func (r *Renderer) Filters(local, committed filter.Filter) string {
	if len(local) == 0 && len(committed) == 0 {
		return r.muted.Render("No filters")
	}

	parts := make([]string, 0, len(filter.Fields))
	for _, f := range filter.Fields {
		lv, cv := local.Get(f), committed.Get(f)
		if lv.IsAbsent() && cv.IsAbsent() {
			continue
		}
		switch {
		case lv.Equal(cv):
			parts = append(parts, fmt.Sprintf("%s=%s", f, cv))
		case lv.IsAbsent():
			parts = append(parts, r.muted.Render(fmt.Sprintf("%s=%s (clearing)", f, cv)))
		default:
			parts = append(parts, r.muted.Render(fmt.Sprintf("%s=%s (pending)", f, lv)))
		}
	}
	return strings.Join(parts, "  ")
}

// Error renders a non-fatal error line.
func (r *Renderer) Error(err error) string {
	if err == nil {
		return ""
	}
	return r.errStyle.Render("Could not load invoices: " + err.Error())
}

// Footer renders the pagination line.
func (r *Renderer) Footer(page, pageCount, total, selected int) string {
	return r.muted.Render(fmt.Sprintf("Page %d of %d  |  %d invoices  |  %d selected", page, pageCount, total, selected))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
