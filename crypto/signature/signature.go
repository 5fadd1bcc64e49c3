package signature

import (
	"bytes"
	"fmt"

	"github.com/multiformats/go-varint"
)

// EdDSA is the multicodec code for Ed25519 signatures.
const EdDSA = 0xd0ed

// Signature is a signature tagged with the algorithm that produced it.
//
// Binary layout: varint(code) | varint(len(raw)) | raw
type Signature interface {
	Code() uint64
	Size() uint64
	Bytes() []byte
	// Raw signature (without signature algorithm info).
	Raw() []byte
}

func NewSignature(code uint64, raw []byte) Signature {
	cl := varint.UvarintSize(code)
	rl := varint.UvarintSize(uint64(len(raw)))
	sig := make(signature, cl+rl+len(raw))
	varint.PutUvarint(sig, code)
	varint.PutUvarint(sig[cl:], uint64(len(raw)))
	copy(sig[cl+rl:], raw)
	return sig
}

func Encode(s Signature) []byte {
	return s.Bytes()
}

// Decode a signature from its binary form. The algorithm tag and the length
// prefix must be well formed and the length must match the remaining bytes.
func Decode(b []byte) (Signature, error) {
	code, cl, err := varint.FromUvarint(b)
	if err != nil {
		return nil, fmt.Errorf("reading signature code: %w", err)
	}
	size, rl, err := varint.FromUvarint(b[cl:])
	if err != nil {
		return nil, fmt.Errorf("reading signature size: %w", err)
	}
	if uint64(len(b)-cl-rl) != size {
		return nil, fmt.Errorf("invalid signature size for code 0x%x: %d wanted: %d", code, len(b)-cl-rl, size)
	}
	sig := make(signature, len(b))
	copy(sig, b)
	return sig, nil
}

// Equal reports whether two signatures have identical binary forms. A nil
// signature is only equal to another nil signature.
func Equal(a, b Signature) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

type signature []byte

func (s signature) Code() uint64 {
	c, _, _ := varint.FromUvarint(s)
	return c
}

func (s signature) Size() uint64 {
	_, cl, _ := varint.FromUvarint(s)
	n, _, _ := varint.FromUvarint(s[cl:])
	return n
}

func (s signature) Raw() []byte {
	cl := varint.UvarintSize(s.Code())
	rl := varint.UvarintSize(s.Size())
	return s[cl+rl:]
}

func (s signature) Bytes() []byte {
	return s
}

// Verifier checks that a signature over a message was produced by the
// holder of a key.
type Verifier interface {
	Code() uint64
	Verify(msg []byte, sig Signature) bool
}

type SignatureView interface {
	Signature
	// Verify that the signature was produced by the given message.
	Verify(msg []byte, signer Verifier) bool
}

func NewSignatureView(s Signature) SignatureView {
	return signatureView(signature(s.Bytes()))
}

type signatureView signature

func (v signatureView) Bytes() []byte {
	return signature(v).Bytes()
}

func (v signatureView) Code() uint64 {
	return signature(v).Code()
}

func (v signatureView) Raw() []byte {
	return signature(v).Raw()
}

func (v signatureView) Size() uint64 {
	return signature(v).Size()
}

func (v signatureView) Verify(msg []byte, signer Verifier) bool {
	return signer.Verify(msg, v)
}
