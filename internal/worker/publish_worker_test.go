package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/finance"
	"ledger/internal/interchange"
	"ledger/internal/locale"
	sheetsmem "ledger/internal/sheets/memory"
)

type fakeStore struct {
	snap core.Snapshot
	err  error
}

func (f *fakeStore) Snapshot(context.Context) (core.Snapshot, error) {
	return f.snap, f.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, []interchange.Sheet) error {
	return errors.New("quota exceeded")
}

func newWorker(store *fakeStore, pub *sheetsmem.Store) *PublishWorker {
	w := NewPublishWorker(store, finance.NewMemo(8, time.Minute, nil), pub, locale.English())
	w.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func TestPublish_SummaryAndCollections(t *testing.T) {
	store := &fakeStore{snap: core.Snapshot{
		CaseFiles: []core.CaseFile{{ID: "c1", FileNumber: "2024/1", ClientName: "Acme", AmountCollected: core.NewAmount(1000)}},
		OfficeExpenses: []core.OfficeExpense{
			{ID: "o1", Description: "Rent", Category: "Rent", Amount: core.NewAmount(200), Date: core.NewDate(2024, 1, 5)},
		},
	}}
	pub := sheetsmem.New()
	w := newWorker(store, pub)

	require.NoError(t, w.Publish(context.Background()))

	summary, ok := pub.Tab("Summary")
	require.True(t, ok)
	assert.Equal(t, []string{"Summary", "Income", "Expense"}, summary.Header)
	require.Len(t, summary.Values, 5)
	assert.Equal(t, []any{"Total", 1000.0, 200.0}, summary.Values[3])
	assert.Equal(t, []any{"Net Profit", 800.0, "-"}, summary.Values[4])

	_, ok = pub.Tab("Case Files")
	assert.True(t, ok)
	_, ok = pub.Tab("Office Expenses")
	assert.True(t, ok)
	_, ok = pub.Tab("Case Expenses")
	assert.False(t, ok, "empty collections get no tab")
}

func TestPublish_EmptyLedgerStillPublishesSummary(t *testing.T) {
	pub := sheetsmem.New()
	w := newWorker(&fakeStore{}, pub)

	require.NoError(t, w.Publish(context.Background()))
	summary, ok := pub.Tab("Summary")
	require.True(t, ok)
	assert.Equal(t, []any{"Net Profit", 0.0, "-"}, summary.Values[4])
	assert.Equal(t, 1, pub.Publications())
}

func TestPublish_Errors(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		pub := sheetsmem.New()
		w := newWorker(&fakeStore{err: errors.New("disk")}, pub)
		err := w.Publish(context.Background())
		assert.ErrorContains(t, err, "load snapshot")
		assert.Zero(t, pub.Publications())
	})

	t.Run("publisher", func(t *testing.T) {
		w := NewPublishWorker(&fakeStore{}, finance.NewMemo(8, time.Minute, nil), failingPublisher{}, nil)
		assert.ErrorContains(t, w.Publish(context.Background()), "quota exceeded")
	})
}

func TestHandleImportCompleted(t *testing.T) {
	pub := sheetsmem.New()
	w := newWorker(&fakeStore{}, pub)

	err := w.HandleImportCompleted(context.Background(), &amqp.ImportCompletedMessage{
		Entity: core.OfficeExpenses, FileName: "office.xlsx", Rows: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.Publications())
}

func TestRun_PublishesPeriodically(t *testing.T) {
	pub := sheetsmem.New()
	w := newWorker(&fakeStore{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pub.Publications() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
