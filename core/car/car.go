package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/ipfs/go-cid"
	cbor "github.com/ipfs/go-ipld-cbor"
	"github.com/ipld/go-car/util"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/storacha/go-esign/core/ipld"
	"github.com/storacha/go-esign/core/ipld/block"
)

// ContentType is the value the HTTP Content-Type header should have for CARs.
// See https://www.iana.org/assignments/media-types/application/vnd.ipld.car
const ContentType = "application/vnd.ipld.car"

const version = 1

func init() {
	cbor.RegisterCborType(carHeader{})
}

type carHeader struct {
	Roots   []cid.Cid `refmt:"roots"`
	Version uint64    `refmt:"version"`
}

// Encode writes a CARv1 with the given roots and blocks. The returned reader
// streams the archive as it is read; errors from the block iterator surface
// as read errors.
func Encode(roots []ipld.Link, blocks iter.Seq2[ipld.Block, error]) io.Reader {
	reader, writer := io.Pipe()
	go func() {
		h := carHeader{Roots: []cid.Cid{}, Version: version}
		for _, r := range roots {
			c, err := toCid(r)
			if err != nil {
				writer.CloseWithError(fmt.Errorf("writing CAR header: %w", err))
				return
			}
			h.Roots = append(h.Roots, c)
		}
		hb, err := cbor.DumpObject(h)
		if err != nil {
			writer.CloseWithError(fmt.Errorf("writing CAR header: %w", err))
			return
		}
		if err := util.LdWrite(writer, hb); err != nil {
			writer.CloseWithError(fmt.Errorf("writing CAR header: %w", err))
			return
		}
		for b, err := range blocks {
			if err != nil {
				writer.CloseWithError(fmt.Errorf("writing CAR blocks: %w", err))
				return
			}
			c, err := toCid(b.Link())
			if err != nil {
				writer.CloseWithError(fmt.Errorf("writing CAR blocks: %w", err))
				return
			}
			if err := util.LdWrite(writer, c.Bytes(), b.Bytes()); err != nil {
				writer.CloseWithError(fmt.Errorf("writing CAR blocks: %w", err))
				return
			}
		}
		writer.Close()
	}()
	return reader
}

// Decode reads a CARv1 header and returns its roots and an iterator over its
// blocks. Every block is checked against the hash in its CID.
func Decode(reader io.Reader) ([]ipld.Link, iter.Seq2[ipld.Block, error], error) {
	br := bufio.NewReader(reader)

	hb, err := util.LdRead(br)
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var ch carHeader
	if err := cbor.DecodeInto(hb, &ch); err != nil {
		return nil, nil, fmt.Errorf("invalid header: %w", err)
	}
	if ch.Version != version {
		return nil, nil, fmt.Errorf("invalid car version: %d", ch.Version)
	}

	roots := make([]ipld.Link, 0, len(ch.Roots))
	for _, r := range ch.Roots {
		roots = append(roots, cidlink.Link{Cid: r})
	}

	blocks := func(yield func(ipld.Block, error) bool) {
		for {
			c, bytes, err := util.ReadNode(br)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, err)
				return
			}
			hashed, err := c.Prefix().Sum(bytes)
			if err != nil {
				yield(nil, err)
				return
			}
			if !hashed.Equals(c) {
				yield(nil, fmt.Errorf("mismatch in content integrity, name: %s, data: %s", c, hashed))
				return
			}
			if !yield(block.NewBlock(cidlink.Link{Cid: c}, bytes), nil) {
				return
			}
		}
	}
	return roots, blocks, nil
}

func toCid(link ipld.Link) (cid.Cid, error) {
	if cl, ok := link.(cidlink.Link); ok {
		return cl.Cid, nil
	}
	c, err := cid.Parse(link.String())
	if err != nil {
		return cid.Undef, fmt.Errorf("converting link %s to CID: %w", link, err)
	}
	return c, nil
}
