// Package table implements the entity-agnostic list operations shared by every
// collection view: free-text search, date-range filtering, stable sorting and
// pagination. All functions are pure and never modify their input.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"ledger/internal/core"
)

// Row is anything exposing its fields by key. The core entities implement it.
type Row interface {
	Keys() []string
	Value(key string) (any, bool)
}

// MapRow adapts loosely typed rows, such as parsed spreadsheet lines, to Row.
// Columns keeps the field order; Fields holds the values.
type MapRow struct {
	Columns []string
	Fields  map[string]any
}

// NewMapRow builds a row with the given column order.
func NewMapRow(columns []string, fields map[string]any) MapRow {
	return MapRow{Columns: columns, Fields: fields}
}

func (r MapRow) Keys() []string { return r.Columns }

func (r MapRow) Value(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Search keeps the rows where any field value, rendered as text, contains
// term regardless of case. An empty term keeps every row.
func Search[R Row](items []R, term string) []R {
	term = strings.TrimSpace(term)
	if term == "" {
		return clone(items)
	}
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]R, 0, len(items))
	for _, item := range items {
		for _, key := range item.Keys() {
			v, ok := item.Value(key)
			if !ok || v == nil {
				continue
			}
			if strings.Contains(fold.String(Text(v)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// FilterDateRange keeps the rows whose key field lies within [from, to]. A
// zero bound is open. Rows without a usable date in key are kept.
func FilterDateRange[R Row](items []R, key string, from, to core.Date) []R {
	if key == "" || (from.IsZero() && to.IsZero()) {
		return clone(items)
	}

	out := make([]R, 0, len(items))
	for _, item := range items {
		v, _ := item.Value(key)
		d, ok := asDate(v)
		if !ok {
			out = append(out, item)
			continue
		}
		if !from.IsZero() && d.Before(from.Time) {
			continue
		}
		if !to.IsZero() && d.After(to.Time) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Text renders a field value the way it is searched and shown.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.String()
	case core.Date:
		return x.String()
	case time.Time:
		return x.Format(core.DateLayout)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func asDate(v any) (core.Date, bool) {
	switch x := v.(type) {
	case core.Date:
		return x, !x.IsZero()
	case time.Time:
		return core.DateOf(x), !x.IsZero()
	case string:
		d, err := core.ParseDate(x)
		if err != nil || d.IsZero() {
			return core.Date{}, false
		}
		return d, true
	}
	return core.Date{}, false
}

func clone[R any](items []R) []R {
	return append(make([]R, 0, len(items)), items...)
}
