// Package interchange converts ledger collections to and from spreadsheet
// workbooks. Export follows a fixed column template per entity type; import
// reads the first worksheet of an uploaded file and hands the rows to the
// store as one batch.
package interchange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
	"ledger/internal/locale"
	"ledger/internal/table"
)

// Kind controls how a column value is written and read back.
type Kind int

const (
	Text Kind = iota
	OptionalText
	Amount
	Percent
	Date
	Flag
)

// Column is one field of a template.
type Column struct {
	Key  string
	Kind Kind
}

// Template is the fixed column layout of one entity type.
type Template struct {
	Entity  core.EntityType
	Columns []Column
}

var templates = map[core.EntityType]Template{
	core.CaseFiles: {core.CaseFiles, []Column{
		{"file_number", Text},
		{"client_name", Text},
		{"amount_collected", Amount},
		{"amount_collectible", Amount},
		{"notes", OptionalText},
	}},
	core.CaseExpenses: {core.CaseExpenses, []Column{
		{"case_file_id", Text},
		{"expense_type", Text},
		{"amount", Amount},
		{"date", Date},
		{"reimbursed", Flag},
	}},
	core.InstitutionEngagements: {core.InstitutionEngagements, []Column{
		{"institution_name", Text},
		{"file_number", Text},
		{"collected_amount", Amount},
		{"commission_rate", Percent},
		{"net_entitlement", Amount},
		{"paid", Flag},
	}},
	core.InstitutionExpenses: {core.InstitutionExpenses, []Column{
		{"description", Text},
		{"expense_type", OptionalText},
		{"amount", Amount},
		{"date", Date},
		{"paid", Flag},
	}},
	core.OfficeExpenses: {core.OfficeExpenses, []Column{
		{"description", Text},
		{"category", OptionalText},
		{"amount", Amount},
		{"date", Date},
		{"notes", OptionalText},
	}},
}

// TemplateFor returns the template of t.
func TemplateFor(t core.EntityType) (Template, error) {
	tpl, ok := templates[t]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", core.ErrUnknownEntity, t)
	}
	return tpl, nil
}

// Headers returns the localized header row.
func (t Template) Headers(labels *locale.Labels) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = labels.Header(c.Key)
	}
	return out
}

// Values renders row as one spreadsheet line. Amounts stay numeric; flags,
// dates and missing values become text.
func (t Template) Values(row table.Row, labels *locale.Labels) []any {
	out := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		v, _ := row.Value(c.Key)
		out[i] = c.cell(v, labels)
	}
	return out
}

func (c Column) cell(v any, labels *locale.Labels) any {
	switch c.Kind {
	case Amount, Percent:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return labels.Missing
		}
		return d.InexactFloat64()
	case Date:
		d, ok := v.(core.Date)
		if !ok || d.IsZero() {
			return labels.Missing
		}
		return d.String()
	case Flag:
		b, _ := v.(bool)
		return labels.Flag(b)
	case OptionalText:
		if s := table.Text(v); strings.TrimSpace(s) != "" {
			return s
		}
		return labels.Missing
	default:
		return table.Text(v)
	}
}

// Decode turns parsed rows into records keyed by field name. Headers from any
// catalogue (or the raw field key) are recognized; unrecognized headers are
// kept as they are and left for the store to reject. The missing marker
// becomes null, flag labels become booleans, and amounts and dates are parsed
// when they can be.
//
// Amounts typed as text follow the number conventions of the catalogue whose
// headers the file uses, so "1,234" under English headers is 1234 and under
// Turkish ones 1.234. Numeric cells are unaffected.
func (t Template) Decode(rows []table.MapRow) []map[string]any {
	byHeader := make(map[string]Column)
	for _, c := range t.Columns {
		byHeader[normalizeHeader(c.Key)] = c
		for _, l := range locale.Catalogues() {
			byHeader[normalizeHeader(l.Header(c.Key))] = c
		}
	}
	labels := t.catalogueOf(rows)

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]any, len(row.Columns))
		for _, header := range row.Columns {
			v, _ := row.Value(header)
			c, ok := byHeader[normalizeHeader(header)]
			if !ok {
				rec[header] = v
				continue
			}
			rec[c.Key] = c.decode(v, labels)
		}
		out = append(out, rec)
	}
	return out
}

// catalogueOf returns the catalogue matching most of the headers in rows. Ties,
// including files with raw field keys only, go to the default catalogue.
func (t Template) catalogueOf(rows []table.MapRow) *locale.Labels {
	headers := make(map[string]bool)
	for _, row := range rows {
		for _, h := range row.Columns {
			headers[normalizeHeader(h)] = true
		}
	}

	best, bestHits := locale.Default(), 0
	for _, l := range locale.Catalogues() {
		hits := 0
		for _, c := range t.Columns {
			if headers[normalizeHeader(l.Header(c.Key))] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = l, hits
		}
	}
	return best
}

func (c Column) decode(v any, labels *locale.Labels) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" || s == labels.Missing {
		return nil
	}

	switch c.Kind {
	case Amount, Percent:
		if d, err := core.ParseAmountIn(s, labels.Tag); err == nil && d.Valid {
			return d.Decimal
		}
	case Date:
		if d, err := core.ParseDate(s); err == nil {
			return d
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			if tm, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return core.DateOf(tm)
			}
		}
	case Flag:
		for _, l := range locale.Catalogues() {
			if b, ok := l.ParseFlag(s); ok {
				return b
			}
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
