package verifier

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/principal"
	"github.com/storacha/go-esign/principal/multiformat"
)

const Code = uint64(multicodec.Ed25519Pub)
const Name = "Ed25519"

const SignatureCode = signature.EdDSA
const SignatureAlgorithm = "EdDSA"

var publicTagSize = varint.UvarintSize(Code)

const keySize = ed25519.PublicKeySize

var size = publicTagSize + keySize

// Parse a did:key string into a verifier.
func Parse(str string) (principal.Verifier, error) {
	id, err := did.Parse(str)
	if err != nil {
		return nil, fmt.Errorf("parsing DID: %w", err)
	}
	return Decode(id.Bytes())
}

// Decode a multicodec tagged Ed25519 public key.
func Decode(b []byte) (principal.Verifier, error) {
	if len(b) != size {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}
	if _, err := multiformat.UntagWith(Code, b, 0); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	v := make(Ed25519Verifier, size)
	copy(v, b)
	return v, nil
}

// FromRaw creates a verifier from an untagged Ed25519 public key.
func FromRaw(b []byte) (principal.Verifier, error) {
	if len(b) != keySize {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), keySize)
	}
	return Ed25519Verifier(multiformat.TagWith(Code, b)), nil
}

type Ed25519Verifier []byte

func (v Ed25519Verifier) Code() uint64 {
	return Code
}

func (v Ed25519Verifier) Verify(msg []byte, sig signature.Signature) bool {
	if sig == nil || sig.Code() != SignatureCode {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(v.Raw()), msg, sig.Raw())
}

func (v Ed25519Verifier) DID() did.DID {
	id, _ := did.Decode(v)
	return id
}

func (v Ed25519Verifier) Encode() []byte {
	return v
}

func (v Ed25519Verifier) Raw() []byte {
	return v[publicTagSize:]
}
