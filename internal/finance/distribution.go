package finance

import (
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/locale"
)

// Palette is the fixed chart palette; CategoryShare.ColorIndex points into it.
var Palette = []string{
	"#2563eb", "#16a34a", "#f59e0b", "#dc2626",
	"#7c3aed", "#0891b2", "#db2777", "#65a30d",
}

// CategoryShare is one legend row of the office expense distribution.
type CategoryShare struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	ColorIndex int             `json:"colorIndex"`
}

// OtherCategory is the bucket for office expenses without a category.
const OtherCategory = "Other"

// CategoryDistribution groups office expenses by category. Blank categories
// share the OtherCategory bucket.
func CategoryDistribution(expenses []core.OfficeExpense) []CategoryShare {
	return distribute(expenses, OtherCategory)
}

// CategoryDistributionLocalized is CategoryDistribution with the bucket named
// by the catalogue.
func CategoryDistributionLocalized(expenses []core.OfficeExpense, labels *locale.Labels) []CategoryShare {
	return distribute(expenses, labels.OtherCategory)
}

// distribute returns one row per distinct category in first-seen order.
func distribute(expenses []core.OfficeExpense, other string) []CategoryShare {
	shares := make([]CategoryShare, 0)
	index := make(map[string]int)

	for _, e := range expenses {
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = other
		}
		i, ok := index[category]
		if !ok {
			i = len(shares)
			index[category] = i
			shares = append(shares, CategoryShare{Category: category, ColorIndex: i % len(Palette)})
		}
		shares[i].Total = shares[i].Total.Add(core.Amount(e.Amount))
	}
	return shares
}
