// Package snapshot exports the records of a store as a CAR archive and
// imports them back.
//
// Every record becomes a DAG-CBOR block. The single root of the archive is an
// index block pairing each record address with the link of its block.
package snapshot

import (
	"context"
	// to use go:embed
	_ "embed"
	"fmt"
	"io"
	"iter"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	ipldprime "github.com/ipld/go-ipld-prime"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/core/car"
	"github.com/storacha/go-esign/core/dag/blockstore"
	"github.com/storacha/go-esign/core/ipld"
	"github.com/storacha/go-esign/core/ipld/block"
	"github.com/storacha/go-esign/core/ipld/codec/cbor"
	"github.com/storacha/go-esign/core/ipld/hash/sha256"
	"github.com/storacha/go-esign/store"
)

var log = logging.Logger("snapshot")

//go:embed snapshot.ipldsch
var indexSchema []byte

var indexType schema.Type

func init() {
	ts, err := ipldprime.LoadSchemaBytes(indexSchema)
	if err != nil {
		panic(fmt.Errorf("loading snapshot schema: %w", err))
	}
	indexType = ts.TypeByName("Index")
}

type IndexModel struct {
	Entries []EntryModel
}

type EntryModel struct {
	Address ipld.Link
	Record  ipld.Link
}

// Export writes every record of s to w as a CAR archive and returns how many
// records were written. Records are read in a single view, so the archive is
// a consistent snapshot.
func Export(ctx context.Context, s store.Store, w io.Writer) (int, error) {
	var (
		index  IndexModel
		blocks []ipld.Block
	)
	err := s.View(ctx, func(r store.Reader) error {
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			b, err := recordBlock(e.Value)
			if err != nil {
				return err
			}
			index.Entries = append(index.Entries, EntryModel{Address: e.Key.Link(), Record: b.Link()})
			blocks = append(blocks, b)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading records: %w", err)
	}
	if index.Entries == nil {
		index.Entries = []EntryModel{}
	}

	root, err := block.Encode(&index, indexType, cbor.Codec, sha256.Hasher)
	if err != nil {
		return 0, fmt.Errorf("encoding index: %w", err)
	}

	archive := car.Encode([]ipld.Link{root.Link()}, func(yield func(ipld.Block, error) bool) {
		if !yield(root, nil) {
			return
		}
		for _, b := range blocks {
			if !yield(b, nil) {
				return
			}
		}
	})
	if _, err := io.Copy(w, archive); err != nil {
		return 0, fmt.Errorf("writing archive: %w", err)
	}
	log.Infow("exported snapshot", "root", root.Link(), "records", len(index.Entries))
	return len(index.Entries), nil
}

// Records reads an archive and yields each address with its record bytes in
// index order.
func Records(r io.Reader) (iter.Seq2[store.Entry, error], error) {
	roots, blocks, err := car.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("expected one root, got %d", len(roots))
	}
	bs, err := blockstore.NewBlockStore(blockstore.WithBlocksIterator(blocks))
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	rb, ok, err := bs.Get(roots[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("missing index block %s", roots[0])
	}
	var index IndexModel
	if err := cbor.Decode(rb.Bytes(), &index, indexType); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	return func(yield func(store.Entry, error) bool) {
		for _, e := range index.Entries {
			addr, err := address.FromLink(e.Address)
			if err != nil {
				yield(store.Entry{}, err)
				return
			}
			b, ok, err := bs.Get(e.Record)
			if err == nil && !ok {
				err = fmt.Errorf("missing record block %s for %s", e.Record, addr)
			}
			if err != nil {
				yield(store.Entry{}, err)
				return
			}
			if !yield(store.Entry{Key: addr, Value: b.Bytes()}, nil) {
				return
			}
		}
	}, nil
}

// Import inserts every record of an archive into s in one transaction and
// returns how many were imported. It fails without writing anything if any
// address already holds a record.
func Import(ctx context.Context, r io.Reader, s store.Store) (int, error) {
	records, err := Records(r)
	if err != nil {
		return 0, err
	}
	n := 0
	err = s.Update(ctx, func(tx store.Txn) error {
		for e, err := range records {
			if err != nil {
				return err
			}
			if err := tx.Insert(e.Key, e.Value); err != nil {
				return fmt.Errorf("importing %s: %w", e.Key, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Infow("imported snapshot", "records", n)
	return n, nil
}

func recordBlock(value []byte) (ipld.Block, error) {
	digest, err := sha256.Hasher.Sum(value)
	if err != nil {
		return nil, fmt.Errorf("hashing record: %w", err)
	}
	return block.NewBlock(cidlink.Link{Cid: cid.NewCidV1(cbor.Code, digest.Bytes())}, value), nil
}
