package ledger

import (
	"bytes"
	"context"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/attest"
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/store"
)

type SignParams struct {
	Signature signature.Signature
	// FinalizedCID is the content handle of the signer's sealed copy of the
	// document.
	FinalizedCID string
	// Signer is the identity that claims to have produced Signature.
	Signer did.DID
}

// SigningMessage is the message a party signs to fulfil packet identifier of
// an agreement: the identifier and the agreement address joined by a single
// space.
func SigningMessage(identifier string, agreement address.Address) []byte {
	return []byte(identifier + " " + agreement.String())
}

func (l *Ledger) validateSign(caller did.DID, agreementAddr address.Address, identifier string, params SignParams) error {
	if err := validatePacketIdentifier(identifier); err != nil {
		return err
	}
	if !caller.Defined() {
		return NewInvalidArgumentError("caller must be defined")
	}
	if !agreementAddr.Defined() {
		return NewInvalidArgumentError("agreement address must be defined")
	}
	if !params.Signer.Defined() {
		return NewInvalidArgumentError("signer must be defined")
	}
	if params.Signature == nil || len(params.Signature.Bytes()) == 0 {
		return NewInvalidArgumentError("signature must not be empty")
	}
	return l.checkContent("finalized cid", params.FinalizedCID)
}

// verifyAssertion binds the companion assertion to this exact packet: it must
// carry the expected message, name the claimed signer, carry the supplied
// signature, and the claimed signer must be the caller.
func verifyAssertion(caller did.DID, p Packet, params SignParams, assertion attest.Assertion) error {
	if assertion == nil {
		return NewSignatureVerificationError("missing verification assertion for packet %q", p.Identifier)
	}
	if !bytes.Equal(assertion.Message(), SigningMessage(p.Identifier, p.Agreement)) {
		return NewSignatureVerificationError("assertion message %q does not match packet %q of agreement %s", assertion.Message(), p.Identifier, p.Agreement)
	}
	if assertion.Signer() != params.Signer {
		return NewSignatureVerificationError("assertion signer %s does not match claimed signer %s", assertion.Signer(), params.Signer)
	}
	if !signature.Equal(assertion.Signature(), params.Signature) {
		return NewSignatureVerificationError("assertion signature does not match supplied signature")
	}
	if params.Signer != caller {
		return NewSignatureVerificationError("claimed signer %s is not the caller %s", params.Signer, caller)
	}
	return nil
}

// SignSignaturePacket marks packet identifier of an agreement as signed by
// caller. The packet, the agreement counters and the signer's profile are
// updated together or not at all.
//
// Preconditions are checked in order and the first failure is returned:
// AlreadySigned, NonPendingAgreement, IncompleteAgreement, MismatchedSigner,
// SignatureVerificationError and finally NotFound when the signer has no
// profile.
func (l *Ledger) SignSignaturePacket(ctx context.Context, caller did.DID, agreementAddr address.Address, identifier string, params SignParams, assertion attest.Assertion) (Packet, error) {
	if err := l.validateSign(caller, agreementAddr, identifier, params); err != nil {
		rejected("SignSignaturePacket", err, "caller", caller)
		return Packet{}, err
	}

	var (
		p Packet
		a Agreement
	)
	err := l.store.Update(ctx, func(tx store.Txn) error {
		var err error
		if a, err = getAgreement(tx, agreementAddr); err != nil {
			return err
		}
		if p, err = getPacket(tx, agreementAddr, identifier); err != nil {
			return err
		}

		// A signed packet reports AlreadySigned even once its agreement has
		// completed.
		if p.Signed {
			return NewAlreadySignedError(p)
		}
		if a.Status != Pending {
			return NewNonPendingAgreementError(a)
		}
		if a.CreatedPackets < a.TotalPackets {
			return NewIncompleteAgreementError(a)
		}
		if p.RequiredSigner != nil && *p.RequiredSigner != caller {
			return NewMismatchedSignerError(p, caller)
		}
		if err := verifyAssertion(caller, p, params, assertion); err != nil {
			return err
		}
		profile, err := getProfile(tx, params.Signer)
		if err != nil {
			return err
		}

		signer := params.Signer
		finalized := params.FinalizedCID
		p.Signer = &signer
		p.EncryptedCID = &finalized
		p.Signed = true
		a.recordSignature()
		if err := profile.recordSignature(); err != nil {
			return err
		}

		if err := putPacket(tx, p); err != nil {
			return err
		}
		if err := putAgreement(tx, a); err != nil {
			return err
		}
		return putProfile(tx, profile)
	})
	if err != nil {
		rejected("SignSignaturePacket", err, "caller", caller, "agreement", agreementAddr, "identifier", identifier)
		return Packet{}, err
	}

	log.Infow("packet signed", "agreement", agreementAddr, "identifier", identifier, "signer", params.Signer, "signed", a.SignedPackets, "total", a.TotalPackets)
	if a.Status == Completed {
		log.Infow("agreement completed", "agreement", agreementAddr)
	}
	return p, nil
}
