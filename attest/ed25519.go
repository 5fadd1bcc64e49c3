package attest

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-varint"
	"github.com/storacha/go-esign/core/ipld/hash/sha256"
	"github.com/storacha/go-esign/core/result/failure"
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/principal/verifier"
)

var log = logging.Logger("attest")

const DefaultCacheSize = 1024

type InvalidSignatureError struct {
	failure.NamedWithStackTrace
	signer did.DID
	cause  error
}

func NewInvalidSignatureError(signer did.DID, cause error) error {
	return InvalidSignatureError{failure.NamedWithCurrentStackTrace("InvalidSignature"), signer, cause}
}

func (ise InvalidSignatureError) Signer() did.DID {
	return ise.signer
}

func (ise InvalidSignatureError) Error() string {
	if ise.cause != nil {
		return fmt.Sprintf("Signature does not verify as %s: %s", ise.signer, ise.cause)
	}
	return fmt.Sprintf("Signature does not verify as %s", ise.signer)
}

func (ise InvalidSignatureError) Unwrap() error {
	return ise.cause
}

type Option func(*options)

type options struct {
	cacheSize int
	resolver  verifier.Resolver
}

// WithCacheSize sets how many verified proofs are remembered. Zero or less
// disables the cache.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithResolver sets how DIDs are resolved to verifiers. Defaults to did:key
// resolution.
func WithResolver(r verifier.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// Ed25519 verifies Ed25519 signatures and issues assertions for the ones that
// check out.
type Ed25519 struct {
	resolver verifier.Resolver
	cache    *lru.Cache[string, struct{}]
}

func NewEd25519(opts ...Option) (*Ed25519, error) {
	o := options{cacheSize: DefaultCacheSize, resolver: verifier.DIDKey}
	for _, opt := range opts {
		opt(&o)
	}
	v := &Ed25519{resolver: o.resolver}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, struct{}](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating verification cache: %w", err)
		}
		v.cache = cache
	}
	return v, nil
}

// Verify checks that sig over msg was produced by signer and returns an
// assertion saying so.
func (e *Ed25519) Verify(signer did.DID, msg []byte, sig signature.Signature) (Assertion, error) {
	if !signer.Defined() {
		return nil, NewInvalidSignatureError(signer, fmt.Errorf("undefined signer"))
	}
	if sig == nil {
		return nil, NewInvalidSignatureError(signer, fmt.Errorf("missing signature"))
	}

	key, err := proofKey(signer, msg, sig)
	if err != nil {
		return nil, err
	}
	if e.cache != nil && e.cache.Contains(key) {
		log.Debugw("verified proof cache hit", "signer", signer)
		return NewAssertion(signer, msg, sig), nil
	}

	v, err := e.resolver.Resolve(signer)
	if err != nil {
		return nil, NewInvalidSignatureError(signer, err)
	}
	if !v.Verify(msg, sig) {
		log.Debugw("signature rejected", "signer", signer)
		return nil, NewInvalidSignatureError(signer, nil)
	}
	if e.cache != nil {
		e.cache.Add(key, struct{}{})
	}
	return NewAssertion(signer, msg, sig), nil
}

// proofKey is the multihash of the length prefixed signer, message and
// signature.
func proofKey(signer did.DID, msg []byte, sig signature.Signature) (string, error) {
	var buf []byte
	for _, part := range [][]byte{signer.Bytes(), msg, sig.Bytes()} {
		buf = append(buf, varint.ToUvarint(uint64(len(part)))...)
		buf = append(buf, part...)
	}
	digest, err := sha256.Hasher.Sum(buf)
	if err != nil {
		return "", fmt.Errorf("hashing proof: %w", err)
	}
	return string(digest.Bytes()), nil
}
