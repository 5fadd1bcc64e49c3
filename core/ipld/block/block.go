package block

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/storacha/go-esign/core/ipld/codec"
	"github.com/storacha/go-esign/core/ipld/hash"
)

type Block interface {
	Link() ipld.Link
	Bytes() []byte
}

type block struct {
	link  ipld.Link
	bytes []byte
}

func (b *block) Link() ipld.Link {
	return b.link
}

func (b *block) Bytes() []byte {
	return b.bytes
}

// NewBlock pairs bytes with a link. The caller is responsible for the link
// actually addressing the bytes.
func NewBlock(link ipld.Link, bytes []byte) Block {
	return &block{link, bytes}
}

// Encode a value with the given codec and hash it into a content addressed
// block.
func Encode(value any, typ schema.Type, enc codec.Encoder, hasher hash.Hasher, opts ...bindnode.Option) (Block, error) {
	bytes, err := enc.Encode(value, typ, opts...)
	if err != nil {
		return nil, fmt.Errorf("encoding block: %w", err)
	}
	digest, err := hasher.Sum(bytes)
	if err != nil {
		return nil, fmt.Errorf("hashing block: %w", err)
	}
	link := cidlink.Link{Cid: cid.NewCidV1(enc.Code(), digest.Bytes())}
	return NewBlock(link, bytes), nil
}
