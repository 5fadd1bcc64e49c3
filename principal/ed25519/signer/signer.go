package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/principal"
	"github.com/storacha/go-esign/principal/ed25519/verifier"
	"github.com/storacha/go-esign/principal/multiformat"
)

const Code = uint64(multicodec.Ed25519Priv)
const Name = verifier.Name

const SignatureCode = verifier.SignatureCode
const SignatureAlgorithm = verifier.SignatureAlgorithm

var privateTagSize = varint.UvarintSize(Code)
var publicTagSize = varint.UvarintSize(verifier.Code)

const keySize = ed25519.SeedSize

var size = privateTagSize + keySize + publicTagSize + ed25519.PublicKeySize
var pubKeyOffset = privateTagSize + keySize

// Generate a new random Ed25519 signer.
func Generate() (principal.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating Ed25519 key: %w", err)
	}
	return FromRaw(priv)
}

// FromSeed derives a signer from a 32 byte Ed25519 seed.
func FromSeed(seed []byte) (principal.Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: %d wanted: %d", len(seed), ed25519.SeedSize)
	}
	return FromRaw(ed25519.NewKeyFromSeed(seed))
}

// FromRaw creates a signer from an untagged Ed25519 private key.
func FromRaw(priv ed25519.PrivateKey) (principal.Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(priv), ed25519.PrivateKeySize)
	}
	s := make(Ed25519Signer, 0, size)
	s = append(s, multiformat.TagWith(Code, priv.Seed())...)
	s = append(s, multiformat.TagWith(verifier.Code, priv.Public().(ed25519.PublicKey))...)
	return s, nil
}

// Parse a multibase encoded signer, as produced by [Format].
func Parse(str string) (principal.Signer, error) {
	_, bytes, err := multibase.Decode(str)
	if err != nil {
		return nil, fmt.Errorf("decoding multibase string: %w", err)
	}
	return Decode(bytes)
}

// Format a signer as a base64 multibase string.
func Format(s principal.Signer) (string, error) {
	return multibase.Encode(multibase.Base64pad, s.Encode())
}

func Decode(b []byte) (principal.Signer, error) {
	if len(b) != size {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}
	if _, err := multiformat.UntagWith(Code, b, 0); err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if _, err := verifier.Decode(b[pubKeyOffset:]); err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	s := make(Ed25519Signer, size)
	copy(s, b)
	return s, nil
}

type Ed25519Signer []byte

func (s Ed25519Signer) Code() uint64 {
	return Code
}

func (s Ed25519Signer) SignatureCode() uint64 {
	return SignatureCode
}

func (s Ed25519Signer) SignatureAlgorithm() string {
	return SignatureAlgorithm
}

func (s Ed25519Signer) Verifier() principal.Verifier {
	return verifier.Ed25519Verifier(s[pubKeyOffset:])
}

func (s Ed25519Signer) DID() did.DID {
	id, _ := did.Decode(s[pubKeyOffset:])
	return id
}

func (s Ed25519Signer) Encode() []byte {
	return s
}

func (s Ed25519Signer) Raw() []byte {
	pk := make(ed25519.PrivateKey, 0, ed25519.PrivateKeySize)
	pk = append(pk, s[privateTagSize:pubKeyOffset]...)
	pk = append(pk, s[pubKeyOffset+publicTagSize:]...)
	return pk
}

func (s Ed25519Signer) Sign(msg []byte) signature.SignatureView {
	sig := ed25519.Sign(ed25519.PrivateKey(s.Raw()), msg)
	return signature.NewSignatureView(signature.NewSignature(SignatureCode, sig))
}
