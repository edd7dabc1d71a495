package table

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ledger/internal/core"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection reads "desc" (any case) as descending and anything else as
// ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Sort returns the rows ordered by key. The sort is stable, so rows with equal
// keys keep their relative order. How values compare is decided once for the
// whole column: a column whose present values are all typed numbers compares
// numerically, all dates chronologically, all booleans false first, and any
// other column by the collation rules of tag. Text that looks like a number
// is still text. Missing values go last in either direction.
//
// An empty key, or one the rows do not expose, returns items as given.
func Sort[R Row](items []R, key string, dir Direction, tag language.Tag) []R {
	if key == "" || len(items) == 0 || !slices.Contains(items[0].Keys(), key) {
		return items
	}

	out := clone(items)
	compare := comparerFor(out, key, collate.New(tag))
	slices.SortStableFunc(out, func(a, b R) int {
		av, _ := a.Value(key)
		bv, _ := b.Value(key)

		aMissing, bMissing := isMissing(av), isMissing(bv)
		switch {
		case aMissing && bMissing:
			return 0
		case aMissing:
			return 1
		case bMissing:
			return -1
		}

		c := compare(av, bv)
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

type columnKind int

const (
	textColumn columnKind = iota
	numberColumn
	dateColumn
	boolColumn
)

// kindOf classifies the column from its present values. A single value of
// another type turns the column into text.
func kindOf[R Row](items []R, key string) columnKind {
	numbers, dates, bools, seen := true, true, true, false
	for _, item := range items {
		v, _ := item.Value(key)
		if isMissing(v) {
			continue
		}
		seen = true
		if _, ok := asNumber(v); !ok {
			numbers = false
		}
		if _, ok := v.(core.Date); !ok {
			dates = false
		}
		if _, ok := v.(bool); !ok {
			bools = false
		}
	}
	switch {
	case !seen:
		return textColumn
	case numbers:
		return numberColumn
	case dates:
		return dateColumn
	case bools:
		return boolColumn
	}
	return textColumn
}

func comparerFor[R Row](items []R, key string, col *collate.Collator) func(a, b any) int {
	switch kindOf(items, key) {
	case numberColumn:
		return func(a, b any) int {
			x, _ := asNumber(a)
			y, _ := asNumber(b)
			return x.Cmp(y)
		}
	case dateColumn:
		return func(a, b any) int {
			return a.(core.Date).Compare(b.(core.Date).Time)
		}
	case boolColumn:
		return func(a, b any) int {
			return cmp.Compare(boolRank(a.(bool)), boolRank(b.(bool)))
		}
	}
	return func(a, b any) int {
		return col.CompareString(Text(a), Text(b))
	}
}

// asNumber accepts typed numbers only.
func asNumber(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case decimal.NullDecimal:
		return x.Decimal, x.Valid
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Decimal{}, false
}

func isMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case core.Date:
		return x.IsZero()
	case time.Time:
		return x.IsZero()
	case decimal.NullDecimal:
		return !x.Valid
	}
	return false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
