// Package attest produces companion verification assertions: trusted
// statements that a message was signed by an identity. The ledger only
// consumes assertions; it never verifies signatures itself.
package attest

import (
	"slices"

	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
)

// Assertion states that Signature over Message was produced by Signer.
type Assertion interface {
	Message() []byte
	Signer() did.DID
	Signature() signature.Signature
}

type assertion struct {
	signer did.DID
	msg    []byte
	sig    signature.Signature
}

func (a assertion) Message() []byte {
	return a.msg
}

func (a assertion) Signer() did.DID {
	return a.signer
}

func (a assertion) Signature() signature.Signature {
	return a.sig
}

// NewAssertion builds an assertion without checking it. Only a trusted
// primitive such as [Ed25519] should hand these to the ledger.
func NewAssertion(signer did.DID, msg []byte, sig signature.Signature) Assertion {
	return assertion{signer: signer, msg: slices.Clone(msg), sig: sig}
}
