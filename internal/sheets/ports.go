// Package sheets defines where the publishing worker sends the ledger's
// worksheets.
package sheets

import (
	"context"

	"ledger/internal/interchange"
)

// Publisher replaces the content of each named tab with the given sheet.
// Tabs that are not part of the call are left alone.
type Publisher interface {
	Publish(ctx context.Context, sheets []interchange.Sheet) error
}
