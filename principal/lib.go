package principal

import (
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
)

// Principal is anything with a DID, a party as far as the ledger is concerned.
type Principal interface {
	DID() did.DID
}

// Signer holds a private key and can sign on behalf of a party.
type Signer interface {
	Principal
	// Code is the multicodec code of the private key.
	Code() uint64
	SignatureCode() uint64
	SignatureAlgorithm() string
	Sign(msg []byte) signature.SignatureView
	Verifier() Verifier
	// Encode returns the multicodec tagged private key followed by the
	// multicodec tagged public key.
	Encode() []byte
	// Raw returns the untagged private key.
	Raw() []byte
}

// Verifier holds a public key and can check signatures made by the
// corresponding [Signer].
type Verifier interface {
	Principal
	signature.Verifier
	Encode() []byte
	Raw() []byte
}
