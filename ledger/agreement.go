package ledger

import (
	"context"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/store"
)

type AgreementParams struct {
	Identifier     string
	CID            string
	DescriptionCID string
	// TotalPackets is how many packets must be signed to complete the
	// agreement.
	TotalPackets uint32
}

func (l *Ledger) validateAgreement(originator did.DID, params AgreementParams) error {
	if !originator.Defined() {
		return NewInvalidArgumentError("originator must be defined")
	}
	if params.Identifier == "" {
		return NewInvalidArgumentError("agreement identifier must not be empty")
	}
	if params.TotalPackets < 1 {
		return NewInvalidArgumentError("agreement needs at least one packet")
	}
	if err := l.checkContent("cid", params.CID); err != nil {
		return err
	}
	return l.checkContent("description cid", params.DescriptionCID)
}

// InitializeAgreement creates a pending agreement originated by the profile
// of originator. The agreement is addressed by the originator's profile and
// its agreement count before creation.
func (l *Ledger) InitializeAgreement(ctx context.Context, originator did.DID, params AgreementParams) (Agreement, error) {
	if err := l.validateAgreement(originator, params); err != nil {
		rejected("InitializeAgreement", err, "originator", originator)
		return Agreement{}, err
	}

	var a Agreement
	err := l.store.Update(ctx, func(tx store.Txn) error {
		profile, err := getProfile(tx, originator)
		if err != nil {
			return err
		}
		a = Agreement{
			Address:        address.Agreement(profile.Address, profile.AgreementsCount),
			Profile:        profile.Address,
			Sequence:       profile.AgreementsCount,
			Identifier:     params.Identifier,
			CID:            params.CID,
			DescriptionCID: params.DescriptionCID,
			Status:         Pending,
			TotalPackets:   params.TotalPackets,
		}
		if err := profile.recordAgreementOriginated(); err != nil {
			return err
		}

		b, err := encodeAgreement(a)
		if err != nil {
			return err
		}
		if err := tx.Insert(a.Address, b); err != nil {
			if store.IsExists(err) {
				return NewAlreadyExistsError("agreement", a.Address)
			}
			return err
		}
		return putProfile(tx, profile)
	})
	if err != nil {
		rejected("InitializeAgreement", err, "originator", originator)
		return Agreement{}, err
	}
	log.Infow("agreement initialized", "originator", originator, "address", a.Address, "identifier", a.Identifier, "total", a.TotalPackets)
	return a, nil
}

// Agreement returns the agreement at addr.
func (l *Ledger) Agreement(ctx context.Context, addr address.Address) (Agreement, error) {
	var a Agreement
	err := l.store.View(ctx, func(r store.Reader) error {
		var err error
		a, err = getAgreement(r, addr)
		return err
	})
	return a, err
}

// Agreements lists the agreements originated by owner in creation order.
func (l *Ledger) Agreements(ctx context.Context, owner did.DID) ([]Agreement, error) {
	var agreements []Agreement
	err := l.store.View(ctx, func(r store.Reader) error {
		profile, err := getProfile(r, owner)
		if err != nil {
			return err
		}
		for seq := range profile.AgreementsCount {
			a, err := getAgreement(r, address.Agreement(profile.Address, seq))
			if err != nil {
				return err
			}
			agreements = append(agreements, a)
		}
		return nil
	})
	return agreements, err
}
