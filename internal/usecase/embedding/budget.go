package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
// Implementations must be idempotent (IncrBy can be called repeatedly).
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// usageWindow tracks consumption against one limit for one rolling period
// (a UTC day or month). A zero limit means unlimited.
type usageWindow struct {
	limit int64
	used  int64
	// start of the period the counter belongs to; rolling past it zeroes used
	start   time.Time
	nextFn  func(time.Time) time.Time
	keyPart string // "daily" or "monthly"
	keyFmt  string // time layout of the key suffix
}

func dayWindow(limit int64, now time.Time) usageWindow {
	return usageWindow{
		limit:   limit,
		start:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		nextFn:  func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC) },
		keyPart: "daily",
		keyFmt:  "2006-01-02",
	}
}

func monthWindow(limit int64, now time.Time) usageWindow {
	return usageWindow{
		limit:   limit,
		start:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		nextFn:  func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC) },
		keyPart: "monthly",
		keyFmt:  "2006-01",
	}
}

// roll zeroes the counter when now belongs to a later period.
func (w *usageWindow) roll(now time.Time) {
	if cur := w.nextFn(now); cur.After(w.start) {
		w.used = 0
		w.start = cur
	}
}

func (w *usageWindow) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// remaining returns tokens left in the window (-1 if unlimited).
func (w *usageWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	if r := w.limit - w.used; r > 0 {
		return r
	}
	return 0
}

func (w usageWindow) key(provider string, now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w.keyPart, now.Format(w.keyFmt))
}

// BudgetTracker enforces daily and monthly token budgets for one provider.
// The hot path (Check) is in-memory only; Record updates memory first and
// write-behinds to the store so counters survive restarts.
type BudgetTracker struct {
	mu       sync.Mutex
	day      usageWindow
	month    usageWindow
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits.
// A zero limit disables the corresponding window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		day:      dayWindow(dailyLimit, now),
		month:    monthWindow(monthlyLimit, now),
		action:   action,
		provider: provider,
		logger:   logger,
	}
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store

	now := time.Now().UTC()
	for _, w := range []*usageWindow{&b.day, &b.month} {
		key := w.key(b.provider, now)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	b.day.roll(now)
	b.month.roll(now)

	if !b.day.exceeded() && !b.month.exceeded() {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	// action=warn: log but allow the request through
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record registers consumed tokens after a request: memory first, then a
// fire-and-forget INCRBY per window so a slow store never blocks the caller.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := time.Now().UTC()
	b.day.roll(now)
	b.month.roll(now)
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	dailyKey := b.day.key(b.provider, now)
	monthlyKey := b.month.key(b.provider, now)
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Background context: the originating request may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.day.roll(time.Now().UTC())
	return b.day.remaining()
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.month.roll(time.Now().UTC())
	return b.month.remaining()
}
