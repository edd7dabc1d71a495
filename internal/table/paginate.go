package table

import (
	"golang.org/x/text/language"

	"ledger/internal/core"
)

const (
	// DefaultPageSize applies when a page size below 1 is requested.
	DefaultPageSize = 10
	// LinkWindow is the number of page links shown before gaps are introduced.
	LinkWindow = 7
)

// Page is one slice of a paginated collection.
type Page[R any] struct {
	Items      []R        `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalItems int        `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
	Links      []PageLink `json:"links"`
}

// PageLink is one entry of a pager. Gap entries stand for omitted pages and
// carry no number.
type PageLink struct {
	Number  int  `json:"number,omitempty"`
	Current bool `json:"current,omitempty"`
	Gap     bool `json:"gap,omitempty"`
}

// Paginate returns page number page (1-based) of size items each. Out of range
// values are clamped: size < 1 uses DefaultPageSize, page < 1 is the first page
// and page past the end is the last. An empty collection has one empty page.
func Paginate[R any](items []R, page, size int) Page[R] {
	if size < 1 {
		size = DefaultPageSize
	}
	n := len(items)
	total := (n + size - 1) / size

	switch {
	case page < 1:
		page = 1
	case total > 0 && page > total:
		page = total
	case total == 0:
		page = 1
	}

	start := min((page-1)*size, n)
	end := min(start+size, n)

	return Page[R]{
		Items:      append(make([]R, 0, end-start), items[start:end]...),
		Page:       page,
		PageSize:   size,
		TotalItems: n,
		TotalPages: total,
		Links:      PageLinks(page, total),
	}
}

// PageLinks lays out the pager for total pages. Up to LinkWindow pages are all
// listed. Beyond that the first and last pages stay visible with a run around
// current, and gaps mark the omitted ranges; the result always has LinkWindow
// entries.
func PageLinks(current, total int) []PageLink {
	if total < 1 {
		return nil
	}
	current = max(1, min(current, total))

	var numbers []int
	switch {
	case total <= LinkWindow:
		numbers = span(1, total)
	case current <= 4:
		numbers = append(span(1, 5), 0, total)
	case current >= total-3:
		numbers = append([]int{1, 0}, span(total-4, total)...)
	default:
		numbers = append([]int{1, 0}, span(current-1, current+1)...)
		numbers = append(numbers, 0, total)
	}

	links := make([]PageLink, len(numbers))
	for i, n := range numbers {
		if n == 0 {
			links[i] = PageLink{Gap: true}
			continue
		}
		links[i] = PageLink{Number: n, Current: n == current}
	}
	return links
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// Query describes one list view: which rows to keep, in what order, and which
// page to show.
type Query struct {
	Search    string
	DateField string
	From      core.Date
	To        core.Date
	SortKey   string
	Direction Direction
	Page      int
	PageSize  int
	Locale    language.Tag
}

// Apply runs filter, search, sort and paginate in that order. Sorting always
// precedes pagination so pages are stable for unchanged data.
func Apply[R Row](items []R, q Query) Page[R] {
	rows := FilterDateRange(items, q.DateField, q.From, q.To)
	rows = Search(rows, q.Search)
	rows = Sort(rows, q.SortKey, q.Direction, q.Locale)
	return Paginate(rows, q.Page, q.PageSize)
}
