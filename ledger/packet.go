package ledger

import (
	"context"
	"strings"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/store"
)

func validatePacketIdentifier(identifier string) error {
	if identifier == "" {
		return NewInvalidArgumentError("packet identifier must not be empty")
	}
	// the signing message separates the identifier from the agreement
	// address with a single space
	if strings.Contains(identifier, " ") {
		return NewInvalidArgumentError("packet identifier %q must not contain spaces", identifier)
	}
	return nil
}

// InitializeSignaturePacket creates the packet named identifier within an
// agreement. Only the agreement's originator may create packets, only while
// the agreement is pending and only up to its declared total. A nil
// requiredSigner leaves the packet open to any signer.
func (l *Ledger) InitializeSignaturePacket(ctx context.Context, caller did.DID, agreementAddr address.Address, identifier string, requiredSigner *did.DID) (Packet, error) {
	err := validatePacketIdentifier(identifier)
	if err == nil && !caller.Defined() {
		err = NewInvalidArgumentError("caller must be defined")
	}
	if err == nil && !agreementAddr.Defined() {
		err = NewInvalidArgumentError("agreement address must be defined")
	}
	if err == nil && requiredSigner != nil && !requiredSigner.Defined() {
		err = NewInvalidArgumentError("required signer must be defined when present")
	}
	if err != nil {
		rejected("InitializeSignaturePacket", err, "caller", caller)
		return Packet{}, err
	}

	p := Packet{
		Address:    address.Packet(agreementAddr, identifier),
		Agreement:  agreementAddr,
		Identifier: identifier,
	}
	if requiredSigner != nil {
		rs := *requiredSigner
		p.RequiredSigner = &rs
	}

	err = l.store.Update(ctx, func(tx store.Txn) error {
		a, err := getAgreement(tx, agreementAddr)
		if err != nil {
			return err
		}
		if !a.Profile.Equals(address.Profile(caller)) {
			return NewUnauthorizedError("%s is not the originator of agreement %s", caller, a.Address)
		}
		if a.Status != Pending {
			return NewNonPendingAgreementError(a)
		}
		exists, err := tx.Has(p.Address)
		if err != nil {
			return err
		}
		if exists {
			return NewAlreadyExistsError("packet "+identifier, p.Address)
		}
		if a.CreatedPackets >= a.TotalPackets {
			return NewPacketLimitReachedError(a)
		}

		b, err := encodePacket(p)
		if err != nil {
			return err
		}
		if err := tx.Insert(p.Address, b); err != nil {
			if store.IsExists(err) {
				return NewAlreadyExistsError("packet "+identifier, p.Address)
			}
			return err
		}
		a.CreatedPackets++
		return putAgreement(tx, a)
	})
	if err != nil {
		rejected("InitializeSignaturePacket", err, "caller", caller, "agreement", agreementAddr, "identifier", identifier)
		return Packet{}, err
	}
	log.Infow("packet initialized", "agreement", agreementAddr, "identifier", identifier, "required", p.RequiredSigner)
	return p, nil
}

// Packet returns the packet named identifier within an agreement.
func (l *Ledger) Packet(ctx context.Context, agreementAddr address.Address, identifier string) (Packet, error) {
	var p Packet
	err := l.store.View(ctx, func(r store.Reader) error {
		var err error
		p, err = getPacket(r, agreementAddr, identifier)
		return err
	})
	return p, err
}
