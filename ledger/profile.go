package ledger

import (
	"context"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/store"
)

// CreateProfile creates the profile for owner with zeroed counters. It fails
// with AlreadyExists when owner already has one.
func (l *Ledger) CreateProfile(ctx context.Context, owner did.DID) (Profile, error) {
	if !owner.Defined() {
		err := NewInvalidArgumentError("profile owner must be defined")
		rejected("CreateProfile", err)
		return Profile{}, err
	}
	p := Profile{Address: address.Profile(owner), Owner: owner}
	b, err := encodeProfile(p)
	if err != nil {
		return Profile{}, err
	}

	err = l.store.Update(ctx, func(tx store.Txn) error {
		if err := tx.Insert(p.Address, b); err != nil {
			if store.IsExists(err) {
				return NewAlreadyExistsError("profile of "+owner.String(), p.Address)
			}
			return err
		}
		return nil
	})
	if err != nil {
		rejected("CreateProfile", err, "owner", owner)
		return Profile{}, err
	}
	log.Infow("profile created", "owner", owner, "address", p.Address)
	return p, nil
}

// Profile returns the profile of owner.
func (l *Ledger) Profile(ctx context.Context, owner did.DID) (Profile, error) {
	var p Profile
	err := l.store.View(ctx, func(r store.Reader) error {
		var err error
		p, err = getProfile(r, owner)
		return err
	})
	return p, err
}
