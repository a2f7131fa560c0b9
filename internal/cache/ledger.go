package cache

import (
	"context"
	"sync"
	"time"
)

// Ledger remembers the fingerprint of the payload last written to the
// catalog for each barcode, so a re-run can skip unchanged products.
type Ledger interface {
	Fingerprint(ctx context.Context, barcode string) (string, bool, error)
	Remember(ctx context.Context, barcode, fingerprint string) error
	Forget(ctx context.Context, barcodes ...string) error
}

const ledgerPrefix = "catalog:sinked:"

type RedisLedger struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewRedisLedger keeps entries for ttl; zero keeps them forever.
func NewRedisLedger(r *RedisClient, ttl time.Duration) *RedisLedger {
	return &RedisLedger{redis: r, ttl: ttl}
}

func (l *RedisLedger) Fingerprint(ctx context.Context, barcode string) (string, bool, error) {
	return l.redis.Get(ctx, ledgerPrefix+barcode)
}

func (l *RedisLedger) Remember(ctx context.Context, barcode, fingerprint string) error {
	return l.redis.Set(ctx, ledgerPrefix+barcode, fingerprint, l.ttl)
}

func (l *RedisLedger) Forget(ctx context.Context, barcodes ...string) error {
	if len(barcodes) == 0 {
		return nil
	}
	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = ledgerPrefix + b
	}
	return l.redis.Delete(ctx, keys...)
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]string)}
}

func (l *MemoryLedger) Fingerprint(_ context.Context, barcode string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.entries[barcode]
	return v, ok, nil
}

func (l *MemoryLedger) Remember(_ context.Context, barcode, fingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[barcode] = fingerprint
	return nil
}

func (l *MemoryLedger) Forget(_ context.Context, barcodes ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range barcodes {
		delete(l.entries, b)
	}
	return nil
}
