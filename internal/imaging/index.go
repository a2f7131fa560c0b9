package imaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ContentIndex remembers which file holds which content hash and where a
// hash has been published.
type ContentIndex interface {
	Record(ctx context.Context, hash, path string) error
	PathFor(ctx context.Context, hash string) (string, bool, error)
	HashFor(ctx context.Context, path string) (string, bool, error)
	PublishedURL(ctx context.Context, hash string) (string, bool, error)
	SetPublished(ctx context.Context, hash, url string) error
}

const (
	prefixHash = "h:"
	prefixPath = "p:"
	prefixURL  = "u:"
)

// BadgerIndex keeps the content index in an embedded badger database so it
// survives restarts alongside the disk cache.
type BadgerIndex struct {
	db *badger.DB
}

func OpenBadgerIndex(dir string) (*BadgerIndex, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open image index: %w", err)
	}
	return &BadgerIndex{db: db}, nil
}

func (b *BadgerIndex) Close() error { return b.db.Close() }

// Record stores path→hash and, if none is known yet, hash→path.
func (b *BadgerIndex) Record(_ context.Context, hash, path string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixPath+path), []byte(hash)); err != nil {
			return err
		}
		_, err := txn.Get([]byte(prefixHash + hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(prefixHash+hash), []byte(path))
		}
		return err
	})
}

func (b *BadgerIndex) PathFor(_ context.Context, hash string) (string, bool, error) {
	return b.get(prefixHash + hash)
}

func (b *BadgerIndex) HashFor(_ context.Context, path string) (string, bool, error) {
	return b.get(prefixPath + path)
}

func (b *BadgerIndex) PublishedURL(_ context.Context, hash string) (string, bool, error) {
	return b.get(prefixURL + hash)
}

func (b *BadgerIndex) SetPublished(_ context.Context, hash, url string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixURL+hash), []byte(url))
	})
}

func (b *BadgerIndex) get(key string) (string, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

// MemoryIndex is a process-local ContentIndex.
type MemoryIndex struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{data: make(map[string]string)}
}

func (m *MemoryIndex) Record(_ context.Context, hash, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[prefixPath+path] = hash
	if _, ok := m.data[prefixHash+hash]; !ok {
		m.data[prefixHash+hash] = path
	}
	return nil
}

func (m *MemoryIndex) PathFor(_ context.Context, hash string) (string, bool, error) {
	return m.get(prefixHash + hash)
}

func (m *MemoryIndex) HashFor(_ context.Context, path string) (string, bool, error) {
	return m.get(prefixPath + path)
}

func (m *MemoryIndex) PublishedURL(_ context.Context, hash string) (string, bool, error) {
	return m.get(prefixURL + hash)
}

func (m *MemoryIndex) SetPublished(_ context.Context, hash, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[prefixURL+hash] = url
	return nil
}

func (m *MemoryIndex) get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}
