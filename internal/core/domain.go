package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CaseFiles              EntityType = "case_files"
	CaseExpenses           EntityType = "case_expenses"
	InstitutionEngagements EntityType = "institution_engagements"
	InstitutionExpenses    EntityType = "institution_expenses"
	OfficeExpenses         EntityType = "office_expenses"
)

type (
	// EntityType names one of the five record collections. The value doubles as
	// the storage table name.
	EntityType string

	CaseFile struct {
		ID                string              `json:"id"`
		OwnerID           string              `json:"owner_id,omitempty"`
		FileNumber        string              `json:"file_number"`
		ClientName        string              `json:"client_name"`
		AmountCollected   decimal.NullDecimal `json:"amount_collected"`
		AmountCollectible decimal.NullDecimal `json:"amount_collectible"`
		Notes             string              `json:"notes,omitempty"`
	}

	CaseExpense struct {
		ID          string              `json:"id"`
		CaseFileID  string              `json:"case_file_id"`
		ExpenseType string              `json:"expense_type"`
		Amount      decimal.NullDecimal `json:"amount"`
		Date        Date                `json:"date"`
		Reimbursed  bool                `json:"reimbursed"`
	}

	// InstitutionEngagement is a referral matter where the institution owes the
	// office a commission on the collected amount. NetEntitlement, when set, is a
	// manual correction and always wins over the computed commission.
	InstitutionEngagement struct {
		ID              string              `json:"id"`
		InstitutionName string              `json:"institution_name"`
		FileNumber      string              `json:"file_number"`
		CollectedAmount decimal.NullDecimal `json:"collected_amount"`
		CommissionRate  decimal.NullDecimal `json:"commission_rate"`
		NetEntitlement  decimal.NullDecimal `json:"net_entitlement"`
		Paid            bool                `json:"paid"`
	}

	InstitutionExpense struct {
		ID          string              `json:"id"`
		Description string              `json:"description"`
		ExpenseType string              `json:"expense_type"`
		Amount      decimal.NullDecimal `json:"amount"`
		Date        Date                `json:"date"`
		Paid        bool                `json:"paid"`
	}

	// OfficeExpense has no paid flag: office expenses always count as spent.
	OfficeExpense struct {
		ID          string              `json:"id"`
		Description string              `json:"description"`
		Category    string              `json:"category"`
		Amount      decimal.NullDecimal `json:"amount"`
		Date        Date                `json:"date"`
		Notes       string              `json:"notes,omitempty"`
	}

	// Snapshot is one read of all five collections. Consumers treat it as
	// immutable for the duration of a computation.
	Snapshot struct {
		CaseFiles              []CaseFile              `json:"case_files"`
		CaseExpenses           []CaseExpense           `json:"case_expenses"`
		InstitutionEngagements []InstitutionEngagement `json:"institution_engagements"`
		InstitutionExpenses    []InstitutionExpense    `json:"institution_expenses"`
		OfficeExpenses         []OfficeExpense         `json:"office_expenses"`
	}

	// Attachment is the metadata of a file stored next to an entity. The bytes
	// live with the attachment store, never in the ledger.
	Attachment struct {
		ID          string     `json:"id"`
		EntityID    string     `json:"entity_id"`
		EntityType  EntityType `json:"entity_type"`
		FileName    string     `json:"file_name"`
		ContentType string     `json:"content_type,omitempty"`
		Size        int64      `json:"size"`
		URL         string     `json:"url,omitempty"`
	}
)

var (
	ErrUnknownEntity      = errors.New("unknown entity type")
	ErrEmptyFileNumber    = errors.New("empty file number")
	ErrEmptyClientName    = errors.New("empty client name")
	ErrEmptyCaseFile      = errors.New("empty case file reference")
	ErrEmptyInstitution   = errors.New("empty institution name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrRateOutOfRange     = errors.New("commission rate must be between 0 and 100")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// EntityTypes returns every entity type in export order.
func EntityTypes() []EntityType {
	return []EntityType{CaseFiles, CaseExpenses, InstitutionEngagements, InstitutionExpenses, OfficeExpenses}
}

func (t EntityType) String() string {
	return string(t)
}

func (t EntityType) IsValid() bool {
	switch t {
	case CaseFiles, CaseExpenses, InstitutionEngagements, InstitutionExpenses, OfficeExpenses:
		return true
	default:
		return false
	}
}

// ParseEntityType accepts the canonical name as well as the hyphenated form used
// in URLs (office-expenses).
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
	}
	return t, nil
}

// Len returns the number of records held for t.
func (s Snapshot) Len(t EntityType) int {
	switch t {
	case CaseFiles:
		return len(s.CaseFiles)
	case CaseExpenses:
		return len(s.CaseExpenses)
	case InstitutionEngagements:
		return len(s.InstitutionEngagements)
	case InstitutionExpenses:
		return len(s.InstitutionExpenses)
	case OfficeExpenses:
		return len(s.OfficeExpenses)
	}
	return 0
}

func (s Snapshot) IsEmpty() bool {
	for _, t := range EntityTypes() {
		if s.Len(t) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a copy whose slices do not share backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		CaseFiles:              append([]CaseFile(nil), s.CaseFiles...),
		CaseExpenses:           append([]CaseExpense(nil), s.CaseExpenses...),
		InstitutionEngagements: append([]InstitutionEngagement(nil), s.InstitutionEngagements...),
		InstitutionExpenses:    append([]InstitutionExpense(nil), s.InstitutionExpenses...),
		OfficeExpenses:         append([]OfficeExpense(nil), s.OfficeExpenses...),
	}
}

// Validate checks every record and reports the first failure with its
// 1-based position within its collection.
func (s Snapshot) Validate() error {
	check := func(i int, err error) error {
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		return nil
	}
	for i, v := range s.CaseFiles {
		if err := check(i, v.Validate()); err != nil {
			return err
		}
	}
	for i, v := range s.CaseExpenses {
		if err := check(i, v.Validate()); err != nil {
			return err
		}
	}
	for i, v := range s.InstitutionEngagements {
		if err := check(i, v.Validate()); err != nil {
			return err
		}
	}
	for i, v := range s.InstitutionExpenses {
		if err := check(i, v.Validate()); err != nil {
			return err
		}
	}
	for i, v := range s.OfficeExpenses {
		if err := check(i, v.Validate()); err != nil {
			return err
		}
	}
	return nil
}

func (c CaseFile) Validate() error {
	if strings.TrimSpace(c.FileNumber) == "" {
		return ErrEmptyFileNumber
	}
	if strings.TrimSpace(c.ClientName) == "" {
		return ErrEmptyClientName
	}
	return validateAmounts(c.AmountCollected, c.AmountCollectible)
}

func (e CaseExpense) Validate() error {
	if strings.TrimSpace(e.CaseFileID) == "" {
		return ErrEmptyCaseFile
	}
	return validateAmounts(e.Amount)
}

// Validate is a form-level check. Aggregation never calls it and uses whatever
// rate is stored.
func (e InstitutionEngagement) Validate() error {
	if strings.TrimSpace(e.InstitutionName) == "" {
		return ErrEmptyInstitution
	}
	if e.CommissionRate.Valid {
		r := e.CommissionRate.Decimal
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(100)) {
			return ErrRateOutOfRange
		}
	}
	return validateAmounts(e.CollectedAmount, e.NetEntitlement)
}

func (e InstitutionExpense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	return validateAmounts(e.Amount)
}

func (e OfficeExpense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	return validateAmounts(e.Amount)
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if len(s) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateAmounts(amounts ...decimal.NullDecimal) error {
	for _, a := range amounts {
		if a.Valid && a.Decimal.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}
