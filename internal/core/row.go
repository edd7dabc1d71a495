package core

import "github.com/shopspring/decimal"

// The record types expose their fields by JSON key so that the generic table
// utilities can search, filter and sort any collection. Missing amounts and
// dates are reported as nil values.

var (
	caseFileKeys              = []string{"id", "owner_id", "file_number", "client_name", "amount_collected", "amount_collectible", "notes"}
	caseExpenseKeys           = []string{"id", "case_file_id", "expense_type", "amount", "date", "reimbursed"}
	institutionEngagementKeys = []string{"id", "institution_name", "file_number", "collected_amount", "commission_rate", "net_entitlement", "paid"}
	institutionExpenseKeys    = []string{"id", "description", "expense_type", "amount", "date", "paid"}
	officeExpenseKeys         = []string{"id", "description", "category", "amount", "date", "notes"}
)

// KeysOf returns the field keys of t in column order.
func KeysOf(t EntityType) []string {
	var keys []string
	switch t {
	case CaseFiles:
		keys = caseFileKeys
	case CaseExpenses:
		keys = caseExpenseKeys
	case InstitutionEngagements:
		keys = institutionEngagementKeys
	case InstitutionExpenses:
		keys = institutionExpenseKeys
	case OfficeExpenses:
		keys = officeExpenseKeys
	}
	return append([]string(nil), keys...)
}

func (c CaseFile) Keys() []string { return KeysOf(CaseFiles) }

func (c CaseFile) Value(key string) (any, bool) {
	switch key {
	case "id":
		return c.ID, true
	case "owner_id":
		return c.OwnerID, true
	case "file_number":
		return c.FileNumber, true
	case "client_name":
		return c.ClientName, true
	case "amount_collected":
		return amountValue(c.AmountCollected), true
	case "amount_collectible":
		return amountValue(c.AmountCollectible), true
	case "notes":
		return c.Notes, true
	}
	return nil, false
}

func (e CaseExpense) Keys() []string { return KeysOf(CaseExpenses) }

func (e CaseExpense) Value(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "case_file_id":
		return e.CaseFileID, true
	case "expense_type":
		return e.ExpenseType, true
	case "amount":
		return amountValue(e.Amount), true
	case "date":
		return dateValue(e.Date), true
	case "reimbursed":
		return e.Reimbursed, true
	}
	return nil, false
}

func (e InstitutionEngagement) Keys() []string { return KeysOf(InstitutionEngagements) }

func (e InstitutionEngagement) Value(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "institution_name":
		return e.InstitutionName, true
	case "file_number":
		return e.FileNumber, true
	case "collected_amount":
		return amountValue(e.CollectedAmount), true
	case "commission_rate":
		return amountValue(e.CommissionRate), true
	case "net_entitlement":
		return amountValue(e.NetEntitlement), true
	case "paid":
		return e.Paid, true
	}
	return nil, false
}

func (e InstitutionExpense) Keys() []string { return KeysOf(InstitutionExpenses) }

func (e InstitutionExpense) Value(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "description":
		return e.Description, true
	case "expense_type":
		return e.ExpenseType, true
	case "amount":
		return amountValue(e.Amount), true
	case "date":
		return dateValue(e.Date), true
	case "paid":
		return e.Paid, true
	}
	return nil, false
}

func (e OfficeExpense) Keys() []string { return KeysOf(OfficeExpenses) }

func (e OfficeExpense) Value(key string) (any, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "description":
		return e.Description, true
	case "category":
		return e.Category, true
	case "amount":
		return amountValue(e.Amount), true
	case "date":
		return dateValue(e.Date), true
	case "notes":
		return e.Notes, true
	}
	return nil, false
}

func amountValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

func dateValue(d Date) any {
	if d.IsZero() {
		return nil
	}
	return d
}
