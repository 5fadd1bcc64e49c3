package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/core/ipld/codec/cbor"
	"github.com/storacha/go-esign/did"
	ldm "github.com/storacha/go-esign/ledger/datamodel"
	"github.com/storacha/go-esign/store"
)

// ErrCounterOverflow is returned when a counter would exceed its range.
var ErrCounterOverflow = errors.New("counter overflow")

type Status string

const (
	Pending   Status = "Pending"
	Completed Status = "Completed"
)

// Profile tracks how many agreements a party originated and how many packets
// it signed.
type Profile struct {
	Address         address.Address
	Owner           did.DID
	AgreementsCount uint32
	SignaturesCount uint32
}

// Agreement is a document under signature.
type Agreement struct {
	Address address.Address
	// Profile is the address of the originator's profile.
	Profile        address.Address
	Sequence       uint32
	Identifier     string
	CID            string
	DescriptionCID string
	Status         Status
	SignedPackets  uint32
	CreatedPackets uint32
	TotalPackets   uint32
}

// Packet is one named signing obligation within an agreement.
type Packet struct {
	Address        address.Address
	Agreement      address.Address
	Identifier     string
	RequiredSigner *did.DID
	Signer         *did.DID
	EncryptedCID   *string
	Signed         bool
}

func (p *Profile) recordAgreementOriginated() error {
	if p.AgreementsCount == math.MaxUint32 {
		return fmt.Errorf("agreements of %s: %w", p.Owner, ErrCounterOverflow)
	}
	p.AgreementsCount++
	return nil
}

func (p *Profile) recordSignature() error {
	if p.SignaturesCount == math.MaxUint32 {
		return fmt.Errorf("signatures of %s: %w", p.Owner, ErrCounterOverflow)
	}
	p.SignaturesCount++
	return nil
}

// recordSignature counts a signed packet, completing the agreement when it
// was the last one.
func (a *Agreement) recordSignature() {
	a.SignedPackets++
	if a.SignedPackets == a.TotalPackets {
		a.Status = Completed
	}
}

func encodeProfile(p Profile) ([]byte, error) {
	m := ldm.ProfileModel{
		Owner:           p.Owner.String(),
		AgreementsCount: int64(p.AgreementsCount),
		SignaturesCount: int64(p.SignaturesCount),
	}
	b, err := cbor.Encode(&m, ldm.ProfileType())
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	return b, nil
}

func decodeProfile(addr address.Address, b []byte) (Profile, error) {
	var m ldm.ProfileModel
	if err := cbor.Decode(b, &m, ldm.ProfileType()); err != nil {
		return Profile{}, fmt.Errorf("decoding profile %s: %w", addr, err)
	}
	owner, err := did.Parse(m.Owner)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile %s owner: %w", addr, err)
	}
	agreements, err := toCounter(m.AgreementsCount)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile %s: %w", addr, err)
	}
	signatures, err := toCounter(m.SignaturesCount)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile %s: %w", addr, err)
	}
	return Profile{Address: addr, Owner: owner, AgreementsCount: agreements, SignaturesCount: signatures}, nil
}

func encodeAgreement(a Agreement) ([]byte, error) {
	m := ldm.AgreementModel{
		Profile:        a.Profile.Link(),
		Sequence:       int64(a.Sequence),
		Identifier:     a.Identifier,
		Cid:            a.CID,
		DescriptionCid: a.DescriptionCID,
		Status:         string(a.Status),
		SignedPackets:  int64(a.SignedPackets),
		CreatedPackets: int64(a.CreatedPackets),
		TotalPackets:   int64(a.TotalPackets),
	}
	b, err := cbor.Encode(&m, ldm.AgreementType())
	if err != nil {
		return nil, fmt.Errorf("encoding agreement: %w", err)
	}
	return b, nil
}

func decodeAgreement(addr address.Address, b []byte) (Agreement, error) {
	var m ldm.AgreementModel
	if err := cbor.Decode(b, &m, ldm.AgreementType()); err != nil {
		return Agreement{}, fmt.Errorf("decoding agreement %s: %w", addr, err)
	}
	profile, err := address.FromLink(m.Profile)
	if err != nil {
		return Agreement{}, fmt.Errorf("decoding agreement %s profile: %w", addr, err)
	}
	status := Status(m.Status)
	if status != Pending && status != Completed {
		return Agreement{}, fmt.Errorf("decoding agreement %s: unknown status %q", addr, m.Status)
	}
	a := Agreement{
		Address:        addr,
		Profile:        profile,
		Identifier:     m.Identifier,
		CID:            m.Cid,
		DescriptionCID: m.DescriptionCid,
		Status:         status,
	}
	for _, c := range []struct {
		dst *uint32
		src int64
	}{
		{&a.Sequence, m.Sequence},
		{&a.SignedPackets, m.SignedPackets},
		{&a.CreatedPackets, m.CreatedPackets},
		{&a.TotalPackets, m.TotalPackets},
	} {
		if *c.dst, err = toCounter(c.src); err != nil {
			return Agreement{}, fmt.Errorf("decoding agreement %s: %w", addr, err)
		}
	}
	return a, nil
}

func encodePacket(p Packet) ([]byte, error) {
	m := ldm.PacketModel{
		Agreement:    p.Agreement.Link(),
		Identifier:   p.Identifier,
		EncryptedCid: p.EncryptedCID,
		Signed:       p.Signed,
	}
	if p.RequiredSigner != nil {
		s := p.RequiredSigner.String()
		m.RequiredSigner = &s
	}
	if p.Signer != nil {
		s := p.Signer.String()
		m.Signer = &s
	}
	b, err := cbor.Encode(&m, ldm.PacketType())
	if err != nil {
		return nil, fmt.Errorf("encoding packet: %w", err)
	}
	return b, nil
}

func decodePacket(addr address.Address, b []byte) (Packet, error) {
	var m ldm.PacketModel
	if err := cbor.Decode(b, &m, ldm.PacketType()); err != nil {
		return Packet{}, fmt.Errorf("decoding packet %s: %w", addr, err)
	}
	agreement, err := address.FromLink(m.Agreement)
	if err != nil {
		return Packet{}, fmt.Errorf("decoding packet %s agreement: %w", addr, err)
	}
	p := Packet{
		Address:      addr,
		Agreement:    agreement,
		Identifier:   m.Identifier,
		EncryptedCID: m.EncryptedCid,
		Signed:       m.Signed,
	}
	if p.RequiredSigner, err = parseOptionalDID(m.RequiredSigner); err != nil {
		return Packet{}, fmt.Errorf("decoding packet %s required signer: %w", addr, err)
	}
	if p.Signer, err = parseOptionalDID(m.Signer); err != nil {
		return Packet{}, fmt.Errorf("decoding packet %s signer: %w", addr, err)
	}
	return p, nil
}

func parseOptionalDID(s *string) (*did.DID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := did.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func toCounter(n int64) (uint32, error) {
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("counter out of range: %d", n)
	}
	return uint32(n), nil
}

func getProfile(r store.Reader, owner did.DID) (Profile, error) {
	addr := address.Profile(owner)
	b, err := r.Get(addr)
	if err != nil {
		if store.IsNotFound(err) {
			return Profile{}, NewNotFoundError("profile of "+owner.String(), addr)
		}
		return Profile{}, fmt.Errorf("reading profile %s: %w", addr, err)
	}
	return decodeProfile(addr, b)
}

func getAgreement(r store.Reader, addr address.Address) (Agreement, error) {
	b, err := r.Get(addr)
	if err != nil {
		if store.IsNotFound(err) {
			return Agreement{}, NewNotFoundError("agreement", addr)
		}
		return Agreement{}, fmt.Errorf("reading agreement %s: %w", addr, err)
	}
	return decodeAgreement(addr, b)
}

func getPacket(r store.Reader, agreement address.Address, identifier string) (Packet, error) {
	addr := address.Packet(agreement, identifier)
	b, err := r.Get(addr)
	if err != nil {
		if store.IsNotFound(err) {
			return Packet{}, NewNotFoundError(fmt.Sprintf("packet %q", identifier), addr)
		}
		return Packet{}, fmt.Errorf("reading packet %s: %w", addr, err)
	}
	return decodePacket(addr, b)
}

func putProfile(tx store.Txn, p Profile) error {
	b, err := encodeProfile(p)
	if err != nil {
		return err
	}
	return tx.Put(p.Address, b)
}

func putAgreement(tx store.Txn, a Agreement) error {
	b, err := encodeAgreement(a)
	if err != nil {
		return err
	}
	return tx.Put(a.Address, b)
}

func putPacket(tx store.Txn, p Packet) error {
	b, err := encodePacket(p)
	if err != nil {
		return err
	}
	return tx.Put(p.Address, b)
}
