// Package worker republishes the ledger to a spreadsheet after imports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/finance"
	"ledger/internal/interchange"
	"ledger/internal/locale"
	"ledger/internal/ports"
	"ledger/internal/sheets"
)

// PublishWorker writes the summary and one tab per non-empty collection to a
// sheets.Publisher. Every publication is a full rewrite from the current
// snapshot, so a lost or duplicated message only delays or repeats work.
type PublishWorker struct {
	store     ports.SnapshotReader
	memo      *finance.Memo
	publisher sheets.Publisher
	labels    *locale.Labels
	now       func() time.Time

	mu sync.Mutex
}

func NewPublishWorker(store ports.SnapshotReader, memo *finance.Memo, publisher sheets.Publisher, labels *locale.Labels) *PublishWorker {
	if labels == nil {
		labels = locale.Default()
	}
	return &PublishWorker{
		store:     store,
		memo:      memo,
		publisher: publisher,
		labels:    labels,
		now:       time.Now,
	}
}

// HandleImportCompleted processes one import notification from AMQP.
func (w *PublishWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	slog.InfoContext(ctx, "Processing import message",
		"entity", msg.Entity,
		"file_name", msg.FileName,
		"rows", msg.Rows,
		"timestamp", msg.Timestamp)

	if err := w.Publish(ctx); err != nil {
		return fmt.Errorf("publish after %s import: %w", msg.Entity, err)
	}
	return nil
}

// Publish sends the current state of the ledger.
func (w *PublishWorker) Publish(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	out := []interchange.Sheet{SummarySheet(w.memo.Summary(snap, w.labels), w.labels)}

	wb, err := interchange.ExportAll(snap, w.labels, w.now())
	switch {
	case errors.Is(err, interchange.ErrNothingToExport):
	case err != nil:
		return fmt.Errorf("build worksheets: %w", err)
	default:
		out = append(out, wb.Sheets()...)
	}

	if err := w.publisher.Publish(ctx, out); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published ledger", "tabs", len(out))
	return nil
}

// Run republishes every interval until ctx is done. It backs up the message
// path when notifications are lost.
func (w *PublishWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Publish(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic publish failed", "error", err)
			}
		}
	}
}

// SummarySheet lays out the chart series followed by the net profit.
func SummarySheet(sum finance.Summary, labels *locale.Labels) interchange.Sheet {
	sh := interchange.Sheet{
		Name:   labels.SummarySheet,
		Header: []string{labels.SummarySheet, labels.Income, labels.Expense},
	}
	for _, row := range sum.ChartSeries {
		sh.Values = append(sh.Values, []any{row.Label, row.Income.InexactFloat64(), row.Expense.InexactFloat64()})
	}
	sh.Values = append(sh.Values, []any{labels.NetProfit, sum.NetProfit.InexactFloat64(), labels.Missing})
	return sh
}
