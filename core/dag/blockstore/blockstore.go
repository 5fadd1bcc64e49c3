package blockstore

import (
	"fmt"
	"iter"
	"sync"

	"github.com/storacha/go-esign/core/ipld"
)

type BlockReader interface {
	Get(link ipld.Link) (ipld.Block, bool, error)
	Iterator() iter.Seq2[ipld.Block, error]
}

type BlockWriter interface {
	Put(block ipld.Block) error
}

type BlockStore interface {
	BlockReader
	BlockWriter
}

// blockstore keeps blocks in insertion order. Putting a block whose link is
// already present is a no-op.
type blockstore struct {
	mu   sync.RWMutex
	keys []string
	blks map[string]ipld.Block
}

func (bs *blockstore) Put(block ipld.Block) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	key := block.Link().String()
	if _, ok := bs.blks[key]; ok {
		return nil
	}
	bs.blks[key] = block
	bs.keys = append(bs.keys, key)
	return nil
}

func (bs *blockstore) Get(link ipld.Link) (ipld.Block, bool, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	b, ok := bs.blks[link.String()]
	return b, ok, nil
}

// Iterator yields a point in time view of the blocks in insertion order.
func (bs *blockstore) Iterator() iter.Seq2[ipld.Block, error] {
	bs.mu.RLock()
	keys := append([]string(nil), bs.keys...)
	bs.mu.RUnlock()

	return func(yield func(ipld.Block, error) bool) {
		for _, k := range keys {
			bs.mu.RLock()
			v, ok := bs.blks[k]
			bs.mu.RUnlock()
			var err error
			if !ok {
				err = fmt.Errorf("missing block for key: %s", k)
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// Option is an option configuring a block reader/writer.
type Option func(cfg *bsConfig) error

type bsConfig struct {
	blks     []ipld.Block
	blksiter iter.Seq2[ipld.Block, error]
}

// WithBlocks configures the blocks the blockstore should contain.
func WithBlocks(blks []ipld.Block) Option {
	return func(cfg *bsConfig) error {
		cfg.blks = blks
		return nil
	}
}

// WithBlocksIterator configures the blocks the blockstore should contain.
func WithBlocksIterator(blks iter.Seq2[ipld.Block, error]) Option {
	return func(cfg *bsConfig) error {
		cfg.blksiter = blks
		return nil
	}
}

func NewBlockStore(options ...Option) (BlockStore, error) {
	cfg := bsConfig{}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	bs := &blockstore{
		keys: []string{},
		blks: map[string]ipld.Block{},
	}
	for _, b := range cfg.blks {
		if err := bs.Put(b); err != nil {
			return nil, err
		}
	}
	if cfg.blksiter != nil {
		for b, err := range cfg.blksiter {
			if err != nil {
				return nil, err
			}
			if err := bs.Put(b); err != nil {
				return nil, err
			}
		}
	}
	return bs, nil
}
