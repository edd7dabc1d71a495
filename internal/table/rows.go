package table

import "ledger/internal/core"

// RowsOf returns the collection t of s as rows, in stored order.
func RowsOf(s core.Snapshot, t core.EntityType) []Row {
	switch t {
	case core.CaseFiles:
		return asRows(s.CaseFiles)
	case core.CaseExpenses:
		return asRows(s.CaseExpenses)
	case core.InstitutionEngagements:
		return asRows(s.InstitutionEngagements)
	case core.InstitutionExpenses:
		return asRows(s.InstitutionExpenses)
	case core.OfficeExpenses:
		return asRows(s.OfficeExpenses)
	}
	return nil
}

func asRows[R Row](items []R) []Row {
	out := make([]Row, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
