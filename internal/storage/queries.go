package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ledger/internal/core"
)

func (r *SQLiteRepository) listCaseFiles(ctx context.Context) ([]core.CaseFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, file_number, client_name, amount_collected, amount_collectible, notes
		 FROM case_files ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query case files: %w", err)
	}
	defer rows.Close()

	out := make([]core.CaseFile, 0)
	for rows.Next() {
		var c core.CaseFile
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.FileNumber, &c.ClientName, &c.AmountCollected, &c.AmountCollectible, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan case file: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listCaseExpenses(ctx context.Context) ([]core.CaseExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_file_id, expense_type, amount, date, reimbursed
		 FROM case_expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query case expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.CaseExpense, 0)
	for rows.Next() {
		var (
			e    core.CaseExpense
			date sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CaseFileID, &e.ExpenseType, &e.Amount, &date, &e.Reimbursed); err != nil {
			return nil, fmt.Errorf("scan case expense: %w", err)
		}
		e.Date = scanDate(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listInstitutionEngagements(ctx context.Context) ([]core.InstitutionEngagement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, institution_name, file_number, collected_amount, commission_rate, net_entitlement, paid
		 FROM institution_engagements ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query institution engagements: %w", err)
	}
	defer rows.Close()

	out := make([]core.InstitutionEngagement, 0)
	for rows.Next() {
		var e core.InstitutionEngagement
		if err := rows.Scan(&e.ID, &e.InstitutionName, &e.FileNumber, &e.CollectedAmount, &e.CommissionRate, &e.NetEntitlement, &e.Paid); err != nil {
			return nil, fmt.Errorf("scan institution engagement: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listInstitutionExpenses(ctx context.Context) ([]core.InstitutionExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, expense_type, amount, date, paid
		 FROM institution_expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query institution expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.InstitutionExpense, 0)
	for rows.Next() {
		var (
			e    core.InstitutionExpense
			date sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.ExpenseType, &e.Amount, &date, &e.Paid); err != nil {
			return nil, fmt.Errorf("scan institution expense: %w", err)
		}
		e.Date = scanDate(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listOfficeExpenses(ctx context.Context) ([]core.OfficeExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, amount, date, notes
		 FROM office_expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query office expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.OfficeExpense, 0)
	for rows.Next() {
		var (
			e    core.OfficeExpense
			date sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &date, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan office expense: %w", err)
		}
		e.Date = scanDate(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

// scanDate reads a stored date. Unparsable text reads as no date.
func scanDate(s sql.NullString) core.Date {
	if !s.Valid {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}
