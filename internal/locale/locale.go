// Package locale holds the label catalogues used for chart series, spreadsheet
// headers and file names, and picks one for a request's preferred languages.
package locale

import (
	"strings"

	"golang.org/x/text/language"

	"ledger/internal/core"
)

// Labels is a complete catalogue for one language.
type Labels struct {
	Tag language.Tag

	Yes     string
	No      string
	Missing string

	AllData       string
	OtherCategory string

	ChartInstitutional string
	ChartCaseTracking  string
	ChartOffice        string
	ChartTotal         string

	SummarySheet string
	Income       string
	Expense      string
	NetProfit    string

	// Entities names each collection; the name is used for worksheet titles
	// and export file names.
	Entities map[core.EntityType]string
	// Headers maps a field key to its column header.
	Headers map[string]string
}

var turkish = Labels{
	Tag:                language.Turkish,
	Yes:                "Evet",
	No:                 "Hayır",
	Missing:            "-",
	AllData:            "Tüm Veriler",
	OtherCategory:      "Diğer",
	ChartInstitutional: "Kurum",
	ChartCaseTracking:  "Dosya Takip",
	ChartOffice:        "Genel Büro",
	ChartTotal:         "Toplam",
	SummarySheet:       "Özet",
	Income:             "Gelir",
	Expense:            "Gider",
	NetProfit:          "Net Kâr",
	Entities: map[core.EntityType]string{
		core.CaseFiles:              "Dosyalar",
		core.CaseExpenses:           "Dosya Masrafları",
		core.InstitutionEngagements: "Kurum Dosyaları",
		core.InstitutionExpenses:    "Kurum Masrafları",
		core.OfficeExpenses:         "Büro Giderleri",
	},
	Headers: map[string]string{
		"file_number":        "Dosya No",
		"client_name":        "Müvekkil",
		"amount_collected":   "Tahsil Edilen",
		"amount_collectible": "Tahsil Edilecek",
		"notes":              "Notlar",
		"case_file_id":       "Dosya",
		"expense_type":       "Masraf Türü",
		"amount":             "Tutar",
		"date":               "Tarih",
		"reimbursed":         "Karşılandı",
		"institution_name":   "Kurum",
		"collected_amount":   "Tahsil Edilen Tutar",
		"commission_rate":    "Komisyon Oranı (%)",
		"net_entitlement":    "Net Hakediş",
		"paid":               "Ödendi",
		"description":        "Açıklama",
		"category":           "Kategori",
	},
}

var english = Labels{
	Tag:                language.English,
	Yes:                "Yes",
	No:                 "No",
	Missing:            "-",
	AllData:            "All Data",
	OtherCategory:      "Other",
	ChartInstitutional: "Institutional",
	ChartCaseTracking:  "Case Tracking",
	ChartOffice:        "General Office",
	ChartTotal:         "Total",
	SummarySheet:       "Summary",
	Income:             "Income",
	Expense:            "Expense",
	NetProfit:          "Net Profit",
	Entities: map[core.EntityType]string{
		core.CaseFiles:              "Case Files",
		core.CaseExpenses:           "Case Expenses",
		core.InstitutionEngagements: "Institution Files",
		core.InstitutionExpenses:    "Institution Expenses",
		core.OfficeExpenses:         "Office Expenses",
	},
	Headers: map[string]string{
		"file_number":        "File No",
		"client_name":        "Client",
		"amount_collected":   "Collected",
		"amount_collectible": "Collectible",
		"notes":              "Notes",
		"case_file_id":       "Case File",
		"expense_type":       "Expense Type",
		"amount":             "Amount",
		"date":               "Date",
		"reimbursed":         "Reimbursed",
		"institution_name":   "Institution",
		"collected_amount":   "Collected Amount",
		"commission_rate":    "Commission Rate (%)",
		"net_entitlement":    "Net Entitlement",
		"paid":               "Paid",
		"description":        "Description",
		"category":           "Category",
	},
}

var (
	catalogues = []*Labels{&turkish, &english}
	matcher    = language.NewMatcher([]language.Tag{language.Turkish, language.English})
)

// Default returns the office locale catalogue.
func Default() *Labels {
	return &turkish
}

// Catalogues returns every catalogue, the default first.
func Catalogues() []*Labels {
	return append([]*Labels(nil), catalogues...)
}

// English returns the English catalogue.
func English() *Labels {
	return &english
}

// Match picks the catalogue best matching an Accept-Language style list. An
// empty or unparsable list yields the default catalogue.
func Match(preferred string) *Labels {
	if strings.TrimSpace(preferred) == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(preferred)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return catalogues[idx]
}

// Header returns the column header for key, falling back to the key itself.
func (l *Labels) Header(key string) string {
	if h, ok := l.Headers[key]; ok {
		return h
	}
	return key
}

// Entity returns the display name of t, falling back to the type name.
func (l *Labels) Entity(t core.EntityType) string {
	if n, ok := l.Entities[t]; ok {
		return n
	}
	return t.String()
}

// Flag renders a boolean as the catalogue's Yes/No label.
func (l *Labels) Flag(b bool) string {
	if b {
		return l.Yes
	}
	return l.No
}

// ParseFlag reads a Yes/No label (case-insensitive) back into a boolean.
func (l *Labels) ParseFlag(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, l.Yes):
		return true, true
	case strings.EqualFold(s, l.No):
		return false, true
	}
	return false, false
}
