package verifier

import (
	"fmt"

	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/principal"
	ed25519 "github.com/storacha/go-esign/principal/ed25519/verifier"
	"github.com/storacha/go-esign/principal/multiformat"
)

// Resolver maps a party DID to a verifier for its key.
type Resolver interface {
	Resolve(id did.DID) (principal.Verifier, error)
}

// ResolverFunc adapts a function to a [Resolver].
type ResolverFunc func(id did.DID) (principal.Verifier, error)

func (f ResolverFunc) Resolve(id did.DID) (principal.Verifier, error) {
	return f(id)
}

// UnsupportedKeyError is returned for DIDs whose key type has no verifier.
type UnsupportedKeyError struct {
	DID  did.DID
	Code uint64
}

func (e UnsupportedKeyError) Error() string {
	return fmt.Sprintf("unsupported key type 0x%x for %s", e.Code, e.DID)
}

// DIDKey resolves did:key identities by decoding the public key embedded in
// the DID itself.
var DIDKey Resolver = ResolverFunc(Resolve)

// Resolve decodes the key embedded in a did:key identity.
func Resolve(id did.DID) (principal.Verifier, error) {
	if !id.Defined() {
		return nil, fmt.Errorf("undefined DID")
	}
	code, _, err := multiformat.Untag(id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", id, err)
	}
	switch code {
	case ed25519.Code:
		return ed25519.Decode(id.Bytes())
	default:
		return nil, UnsupportedKeyError{DID: id, Code: code}
	}
}

// Parse a DID string and resolve its verifier.
func Parse(str string) (principal.Verifier, error) {
	id, err := did.Parse(str)
	if err != nil {
		return nil, fmt.Errorf("parsing DID: %w", err)
	}
	return Resolve(id)
}
