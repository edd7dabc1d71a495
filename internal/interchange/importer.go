package interchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// ErrImportInProgress is returned while another file is being processed.
var ErrImportInProgress = errors.New("another import is in progress")

// ErrorKind tells a parse failure from a rejected insert.
type ErrorKind string

const (
	KindParse  ErrorKind = "parse"
	KindInsert ErrorKind = "insert"
)

// ImportError reports a failed import. Nothing was applied in either case.
type ImportError struct {
	Kind     ErrorKind
	FileName string
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %s failed: %v", e.FileName, e.Kind, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Preview is the parsed content of a file that has not been inserted.
type Preview struct {
	Entity  core.EntityType  `json:"entity"`
	Sheet   string           `json:"sheet"`
	Headers []string         `json:"headers"`
	Records []map[string]any `json:"records"`
}

// Result summarizes a committed import.
type Result struct {
	Entity core.EntityType `json:"entity"`
	Rows   int             `json:"rows"`
}

// Importer processes one uploaded file at a time.
type Importer struct {
	inserter ports.BatchInserter
	notifier ports.ImportNotifier
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// Option configures an Importer.
type Option func(*Importer)

// WithNotifier reports successful imports to n.
func WithNotifier(n ports.ImportNotifier) Option {
	return func(im *Importer) { im.notifier = n }
}

// WithLogger sets the importer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// NewImporter creates an importer inserting through inserter.
func NewImporter(inserter ports.BatchInserter, opts ...Option) *Importer {
	im := &Importer{inserter: inserter, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Preview parses the file and decodes it against the template of t without
// inserting anything.
func (im *Importer) Preview(r io.Reader, filename string, t core.EntityType) (*Preview, error) {
	if !im.mu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer im.mu.Unlock()

	return im.read(r, filename, t)
}

// Import parses the file and inserts every row with a single batch call. A
// file that cannot be read, or has no data rows, never reaches the store, and
// a rejected batch is reported as is without retry.
func (im *Importer) Import(ctx context.Context, r io.Reader, filename string, t core.EntityType) (*Result, error) {
	if !im.mu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer im.mu.Unlock()

	p, err := im.read(r, filename, t)
	if err != nil {
		return nil, err
	}
	if len(p.Records) == 0 {
		return nil, &ImportError{Kind: KindParse, FileName: filename, Err: ErrEmptyWorkbook}
	}

	start := im.now()
	if err := im.inserter.InsertBatch(ctx, t, p.Records); err != nil {
		im.logger.WarnContext(ctx, "Import batch rejected",
			"entity", t, "file", filename, "rows", len(p.Records), "error", err)
		return nil, &ImportError{Kind: KindInsert, FileName: filename, Err: err}
	}
	im.logger.InfoContext(ctx, "Import committed",
		"entity", t, "file", filename, "rows", len(p.Records), "duration", im.now().Sub(start))

	res := &Result{Entity: t, Rows: len(p.Records)}
	if im.notifier != nil {
		ev := ports.ImportEvent{Entity: t, FileName: filename, Rows: res.Rows, At: im.now().UTC()}
		if err := im.notifier.NotifyImport(ctx, ev); err != nil {
			im.logger.WarnContext(ctx, "Import notification failed", "entity", t, "error", err)
		}
	}
	return res, nil
}

func (im *Importer) read(r io.Reader, filename string, t core.EntityType) (*Preview, error) {
	tpl, err := TemplateFor(t)
	if err != nil {
		return nil, err
	}
	ds, err := Parse(r, filename)
	if err != nil {
		return nil, &ImportError{Kind: KindParse, FileName: filename, Err: err}
	}
	return &Preview{
		Entity:  t,
		Sheet:   ds.Sheet,
		Headers: ds.Headers,
		Records: tpl.Decode(ds.Rows),
	}, nil
}
