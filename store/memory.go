package store

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/storacha/go-esign/address"
)

// MemoryStore keeps records in a map. Updates are serialized by a single
// writer lock, so transactions are trivially serializable.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[address.Address][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[address.Address][]byte{}}
}

func (m *MemoryStore) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(committed{m.records})
}

func (m *MemoryStore) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	txn := &memoryTxn{base: m.records, writes: map[address.Address][]byte{}}
	if err := fn(txn); err != nil {
		return err
	}
	for k, v := range txn.writes {
		m.records[k] = v
	}
	return nil
}

// Len returns the number of committed records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

type committed struct {
	records map[address.Address][]byte
}

func (c committed) Get(key address.Address) ([]byte, error) {
	v, ok := c.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (c committed) Has(key address.Address) (bool, error) {
	_, ok := c.records[key]
	return ok, nil
}

func (c committed) Entries() iter.Seq2[Entry, error] {
	return sortedEntries(c.records)
}

type memoryTxn struct {
	base   map[address.Address][]byte
	writes map[address.Address][]byte
}

func (t *memoryTxn) Get(key address.Address) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return slices.Clone(v), nil
	}
	return committed{t.base}.Get(key)
}

func (t *memoryTxn) Has(key address.Address) (bool, error) {
	if _, ok := t.writes[key]; ok {
		return true, nil
	}
	_, ok := t.base[key]
	return ok, nil
}

func (t *memoryTxn) Put(key address.Address, value []byte) error {
	t.writes[key] = slices.Clone(value)
	return nil
}

func (t *memoryTxn) Insert(key address.Address, value []byte) error {
	if ok, _ := t.Has(key); ok {
		return ErrExists
	}
	return t.Put(key, value)
}

func (t *memoryTxn) Entries() iter.Seq2[Entry, error] {
	merged := make(map[address.Address][]byte, len(t.base)+len(t.writes))
	for k, v := range t.base {
		merged[k] = v
	}
	for k, v := range t.writes {
		merged[k] = v
	}
	return sortedEntries(merged)
}

func sortedEntries(records map[address.Address][]byte) iter.Seq2[Entry, error] {
	keys := make([]address.Address, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b address.Address) int {
		return strings.Compare(a.String(), b.String())
	})
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Value: slices.Clone(records[k])})
	}
	return func(yield func(Entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}
