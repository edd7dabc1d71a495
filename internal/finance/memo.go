package finance

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/locale"
)

// Memo caches summaries and category distributions keyed by a content hash of
// their inputs. Equal inputs share a result; any change to any collection
// yields a new key. Results are copies, so callers may modify them freely.
type Memo struct {
	summaries  *cache.LRUCache[Summary]
	categories *cache.LRUCache[[]CategoryShare]
	group      singleflight.Group
	logger     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// MemoStats reports cache effectiveness.
type MemoStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewMemo creates a memo holding at most size entries of each kind for ttl.
func NewMemo(size int, ttl time.Duration, logger *slog.Logger) *Memo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memo{
		summaries:  cache.NewLRUCache[Summary](size, ttl),
		categories: cache.NewLRUCache[[]CategoryShare](size, ttl),
		logger:     logger,
	}
}

// Summary returns AggregateLocalized(s, labels), computing it at most once per
// distinct snapshot and locale.
func (m *Memo) Summary(s core.Snapshot, labels *locale.Labels) Summary {
	key, ok := m.key("summary", labels, s)
	if !ok {
		return AggregateLocalized(s, labels)
	}
	if v, found := m.summaries.Get(key); found {
		m.hits.Add(1)
		return v.Clone()
	}

	v, _, _ := m.group.Do(key, func() (any, error) {
		m.misses.Add(1)
		sum := AggregateLocalized(s, labels)
		m.summaries.Set(key, sum)
		return sum, nil
	})
	return v.(Summary).Clone()
}

// Categories returns CategoryDistributionLocalized(expenses, labels) through
// the cache.
func (m *Memo) Categories(expenses []core.OfficeExpense, labels *locale.Labels) []CategoryShare {
	key, ok := m.key("categories", labels, expenses)
	if !ok {
		return CategoryDistributionLocalized(expenses, labels)
	}
	if v, found := m.categories.Get(key); found {
		m.hits.Add(1)
		return append([]CategoryShare(nil), v...)
	}

	v, _, _ := m.group.Do(key, func() (any, error) {
		m.misses.Add(1)
		shares := CategoryDistributionLocalized(expenses, labels)
		m.categories.Set(key, shares)
		return shares, nil
	})
	return append([]CategoryShare(nil), v.([]CategoryShare)...)
}

// Invalidate drops every cached result.
func (m *Memo) Invalidate() {
	m.summaries.Purge()
	m.categories.Purge()
}

// CleanExpired lets a cache.Janitor sweep the memo.
func (m *Memo) CleanExpired() int {
	return m.summaries.CleanExpired() + m.categories.CleanExpired()
}

func (m *Memo) Stats() MemoStats {
	return MemoStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Size:   m.summaries.Size() + m.categories.Size(),
	}
}

// key hashes v together with the kind and locale. A failed encoding disables
// caching for the call instead of failing it.
func (m *Memo) key(kind string, labels *locale.Labels, v any) (string, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("Memo key encoding failed, computing uncached", "kind", kind, "error", err)
		return "", false
	}
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(labels.Tag.String()))
	h.Write([]byte{0})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), true
}
