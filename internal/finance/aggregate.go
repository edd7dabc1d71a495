// Package finance derives the ledger's financial figures from the five record
// collections. Every function here is a pure computation over a snapshot; the
// Memo type adds an optional cache in front of them.
package finance

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/locale"
)

var hundred = decimal.NewFromInt(100)

// ChartRow is one bar group of the income/expense summary chart.
type ChartRow struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Summary is the derived-metrics structure for one snapshot.
type Summary struct {
	TotalRealizedIncome          decimal.Decimal `json:"totalRealizedIncome"`
	TotalExpense                 decimal.Decimal `json:"totalExpense"`
	NetProfit                    decimal.Decimal `json:"netProfit"`
	TotalReimbursed              decimal.Decimal `json:"totalReimbursed"`
	CaseFileCollections          decimal.Decimal `json:"caseFileCollections"`
	CaseExpenseTotal             decimal.Decimal `json:"caseExpenseTotal"`
	CaseExpenseReimbursed        decimal.Decimal `json:"caseExpenseReimbursed"`
	InstitutionRealizedIncome    decimal.Decimal `json:"institutionRealizedIncome"`
	InstitutionPendingReceivable decimal.Decimal `json:"institutionPendingReceivable"`
	InstitutionExpenseTotal      decimal.Decimal `json:"institutionExpenseTotal"`
	InstitutionExpenseReimbursed decimal.Decimal `json:"institutionExpenseReimbursed"`
	OfficeExpenseTotal           decimal.Decimal `json:"officeExpenseTotal"`

	// Engagements carries every institution engagement with NetEntitlement set
	// to the effective entitlement.
	Engagements []core.InstitutionEngagement `json:"institutionEngagementsWithComputedEntitlement"`

	ChartSeries []ChartRow `json:"chartSeries"`

	CaseCollectibleTotal          decimal.Decimal `json:"caseCollectibleTotal"`
	CaseExpenseOutstanding        decimal.Decimal `json:"caseExpenseOutstanding"`
	InstitutionExpenseOutstanding decimal.Decimal `json:"institutionExpenseOutstanding"`
}

// Entitlement returns the net commission owed for e. A stored NetEntitlement
// is a manual correction and wins over collected × rate / 100, whatever the
// formula would give.
func Entitlement(e core.InstitutionEngagement) decimal.Decimal {
	if e.NetEntitlement.Valid {
		return e.NetEntitlement.Decimal
	}
	return core.Amount(e.CollectedAmount).Mul(core.Amount(e.CommissionRate)).Div(hundred)
}

// Aggregate computes the summary with chart labels from the default catalogue.
func Aggregate(s core.Snapshot) Summary {
	return AggregateLocalized(s, locale.Default())
}

// AggregateLocalized computes the summary for s. Missing amounts count as zero
// and commission rates are used as stored, even outside 0–100.
func AggregateLocalized(s core.Snapshot, labels *locale.Labels) Summary {
	var sum Summary

	for _, c := range s.CaseFiles {
		sum.CaseFileCollections = sum.CaseFileCollections.Add(core.Amount(c.AmountCollected))
		sum.CaseCollectibleTotal = sum.CaseCollectibleTotal.Add(core.Amount(c.AmountCollectible))
	}

	for _, e := range s.CaseExpenses {
		amount := core.Amount(e.Amount)
		sum.CaseExpenseTotal = sum.CaseExpenseTotal.Add(amount)
		if e.Reimbursed {
			sum.CaseExpenseReimbursed = sum.CaseExpenseReimbursed.Add(amount)
		}
	}

	sum.Engagements = make([]core.InstitutionEngagement, 0, len(s.InstitutionEngagements))
	for _, e := range s.InstitutionEngagements {
		net := Entitlement(e)
		e.NetEntitlement = decimal.NewNullDecimal(net)
		sum.Engagements = append(sum.Engagements, e)
		if e.Paid {
			sum.InstitutionRealizedIncome = sum.InstitutionRealizedIncome.Add(net)
		} else {
			sum.InstitutionPendingReceivable = sum.InstitutionPendingReceivable.Add(net)
		}
	}

	for _, e := range s.InstitutionExpenses {
		amount := core.Amount(e.Amount)
		sum.InstitutionExpenseTotal = sum.InstitutionExpenseTotal.Add(amount)
		if e.Paid {
			sum.InstitutionExpenseReimbursed = sum.InstitutionExpenseReimbursed.Add(amount)
		}
	}

	for _, e := range s.OfficeExpenses {
		sum.OfficeExpenseTotal = sum.OfficeExpenseTotal.Add(core.Amount(e.Amount))
	}

	sum.TotalRealizedIncome = sum.CaseFileCollections.Add(sum.InstitutionRealizedIncome)
	sum.TotalExpense = sum.CaseExpenseTotal.Add(sum.InstitutionExpenseTotal).Add(sum.OfficeExpenseTotal)
	sum.TotalReimbursed = sum.CaseExpenseReimbursed.Add(sum.InstitutionExpenseReimbursed)
	sum.NetProfit = sum.TotalRealizedIncome.Sub(sum.TotalExpense.Sub(sum.TotalReimbursed))

	sum.CaseExpenseOutstanding = sum.CaseExpenseTotal.Sub(sum.CaseExpenseReimbursed)
	sum.InstitutionExpenseOutstanding = sum.InstitutionExpenseTotal.Sub(sum.InstitutionExpenseReimbursed)

	sum.ChartSeries = []ChartRow{
		{Label: labels.ChartInstitutional, Income: sum.InstitutionRealizedIncome, Expense: sum.InstitutionExpenseTotal},
		{Label: labels.ChartCaseTracking, Income: sum.CaseFileCollections, Expense: sum.CaseExpenseTotal},
		{Label: labels.ChartOffice, Income: decimal.Zero, Expense: sum.OfficeExpenseTotal},
		{Label: labels.ChartTotal, Income: sum.TotalRealizedIncome, Expense: sum.TotalExpense},
	}

	return sum
}

// Clone returns a copy of s that shares no slices with it.
func (s Summary) Clone() Summary {
	s.Engagements = append([]core.InstitutionEngagement(nil), s.Engagements...)
	s.ChartSeries = append([]ChartRow(nil), s.ChartSeries...)
	return s
}
