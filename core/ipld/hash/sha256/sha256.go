package sha256

import (
	"crypto/sha256"
	"fmt"

	"github.com/multiformats/go-multihash"
	"github.com/storacha/go-esign/core/ipld/hash"
)

// sha2-256
const Code = multihash.SHA2_256

// sha2-256 hash has a 32-byte sum
const Size = sha256.Size

type hasher struct{}

func (hasher) Code() uint64 {
	return Code
}

func (hasher) Size() uint64 {
	return Size
}

func (hasher) Sum(b []byte) (hash.Digest, error) {
	sum := sha256.Sum256(b)
	d, err := multihash.Encode(sum[:], Code)
	if err != nil {
		return nil, fmt.Errorf("encoding multihash: %w", err)
	}
	return hash.NewDigest(Code, Size, sum[:], d), nil
}

var Hasher = hasher{}
