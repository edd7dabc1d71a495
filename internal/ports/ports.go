// Package ports declares the collaborator contracts the ledger core depends on.
// Adapters in storage, amqp and sheets implement them.
package ports

import (
	"context"
	"time"

	"ledger/internal/core"
)

type (
	// SnapshotReader reads all five collections at once.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.Snapshot, error)
	}

	// BatchInserter inserts records into one collection. An implementation
	// must apply either every record or none of them.
	BatchInserter interface {
		InsertBatch(ctx context.Context, t core.EntityType, records []map[string]any) error
	}

	// AttachmentLookup lists the files stored for one entity.
	AttachmentLookup interface {
		Attachments(ctx context.Context, entityID string, t core.EntityType) ([]core.Attachment, error)
	}

	// ImportNotifier is told about every successful import.
	ImportNotifier interface {
		NotifyImport(ctx context.Context, ev ImportEvent) error
	}

	// Store is the full persistence collaborator.
	Store interface {
		SnapshotReader
		BatchInserter
		AttachmentLookup
		Ping(ctx context.Context) error
		Close() error
	}
)

// ImportEvent describes a committed spreadsheet import.
type ImportEvent struct {
	Entity   core.EntityType `json:"entity"`
	FileName string          `json:"file_name"`
	Rows     int             `json:"rows"`
	At       time.Time       `json:"at"`
}
