package mockapi

import (
	"fmt"
	"time"

	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
)

var (
	customers = []string{"ACME Trading", "Globex Shanghai", "Initech Suzhou", "Umbrella Medical", "Hooli Shenzhen"}
	types     = []string{"Special VAT", "General VAT"}
	uoms      = []string{"EA", "BOX", "KG"}
)

// Seed builds n deterministic invoices, newest first, posted on consecutive
// days before base. Statuses, customers and line counts cycle so that every
// filter has something to match.
func Seed(n int, base time.Time) []models.Invoice {
	out := make([]models.Invoice, 0, n)
	for i := 0; i < n; i++ {
		inv := models.Invoice{
			ID:           fmt.Sprintf("%d", 10001+i),
			OrderNum:     fmt.Sprintf("SO-%05d", 501+i/2),
			PostDate:     base.AddDate(0, 0, -i).Format("2006-01-02"),
			Type:         types[i%len(types)],
			CustomerName: customers[i%len(customers)],
			Status:       models.StatusPending,
		}

		for j := 0; j < i%3+1; j++ {
			qty := decimal.NewFromInt(int64((i+j)%4 + 1))
			price := decimal.NewFromInt(int64(100 + (i*37+j*11)%400))
			rate := decimal.NewFromInt(13)
			if j%2 == 1 {
				rate = decimal.NewFromInt(6)
			}
			subtotal := qty.Mul(price)
			inv.LineItems = append(inv.LineItems, models.LineItem{
				LineNo:      j + 1,
				PartNo:      fmt.Sprintf("P-%03d", (i*3+j)%200),
				Description: fmt.Sprintf("Component %c%d", 'A'+rune(j), i%10),
				Quantity:    qty,
				UOM:         uoms[(i+j)%len(uoms)],
				UnitPrice:   price,
				Subtotal:    subtotal,
				TaxRate:     rate,
				TaxTotal:    models.ComputeTax(subtotal, rate),
			})
		}
		inv.Amount = sumGross(inv.LineItems)

		switch {
		case i%11 == 10:
			issue(&inv, fmt.Sprintf("EI-%08d", i), base.AddDate(0, 0, -i+1), "seed")
			inv.Status = models.StatusRedNote
			inv.Comment = "red note issued"
		case i%7 == 3:
			inv.Status = models.StatusError
			inv.Comment = "tax code error on line 1"
		case i%7 == 5:
			issue(&inv, fmt.Sprintf("EI-%08d", i), base.AddDate(0, 0, -i+1), "seed")
		}
		out = append(out, inv)
	}
	return out
}

func issue(inv *models.Invoice, eInvoiceID string, at time.Time, by string) {
	inv.Status = models.StatusSubmitted
	inv.EInvoiceID = eInvoiceID
	inv.EInvoiceDate = at.Format("2006-01-02")
	inv.SubmittedBy = by
	inv.PDFURL = "/files/" + eInvoiceID + ".pdf"
}

func sumGross(lines []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range lines {
		total = total.Add(li.Gross())
	}
	return total
}
