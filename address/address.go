// Package address derives the stable locations of ledger records from their
// key tuples. Every key part is length prefixed and the whole tuple is tagged
// with the record kind before hashing, so distinct tuples never share an
// address and re-deriving the same tuple always yields the same address.
package address

import (
	"fmt"
	"strconv"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
	"github.com/storacha/go-esign/core/ipld"
	"github.com/storacha/go-esign/did"
)

const (
	profileTag   = "profile"
	agreementTag = "agreement"
	packetTag    = "packet"
)

// Address is the location of a ledger record. The zero value is [Undef].
type Address struct {
	cid cid.Cid
}

var Undef = Address{}

func (a Address) Defined() bool {
	return a.cid.Defined()
}

// String returns the base32 CID string of the address. It is the form
// parties sign over.
func (a Address) String() string {
	if !a.Defined() {
		return ""
	}
	return a.cid.String()
}

func (a Address) Bytes() []byte {
	return a.cid.Bytes()
}

func (a Address) Cid() cid.Cid {
	return a.cid
}

func (a Address) Link() ipld.Link {
	return cidlink.Link{Cid: a.cid}
}

func (a Address) Equals(b Address) bool {
	return a.cid.Equals(b.cid)
}

// Parse an address from its string form.
func Parse(str string) (Address, error) {
	c, err := cid.Decode(str)
	if err != nil {
		return Undef, fmt.Errorf("decoding address: %w", err)
	}
	return FromCid(c)
}

// FromLink converts a record link back into an address.
func FromLink(link ipld.Link) (Address, error) {
	if link == nil {
		return Undef, fmt.Errorf("missing address link")
	}
	cl, ok := link.(cidlink.Link)
	if !ok {
		return Parse(link.String())
	}
	return FromCid(cl.Cid)
}

// FromCid validates that a CID has the shape of a derived address.
func FromCid(c cid.Cid) (Address, error) {
	if !c.Defined() {
		return Undef, fmt.Errorf("undefined address")
	}
	if c.Prefix().Codec != uint64(multicodec.Raw) || c.Prefix().MhType != multihash.SHA2_256 {
		return Undef, fmt.Errorf("not an address: %s", c)
	}
	return Address{c}, nil
}

// Profile is the address of the profile owned by a party.
func Profile(owner did.DID) Address {
	return derive(profileTag, []byte(owner.String()))
}

// Agreement is the address of the agreement a profile originated as its
// sequence-th agreement (zero based).
func Agreement(profile Address, sequence uint32) Address {
	return derive(agreementTag, []byte(strconv.FormatUint(uint64(sequence), 10)), profile.Bytes())
}

// Packet is the address of the signature packet named identifier within an
// agreement.
func Packet(agreement Address, identifier string) Address {
	return derive(packetTag, []byte(identifier), agreement.Bytes())
}

func derive(tag string, parts ...[]byte) Address {
	size := varint.UvarintSize(uint64(len(tag))) + len(tag)
	for _, p := range parts {
		size += varint.UvarintSize(uint64(len(p))) + len(p)
	}
	buf := make([]byte, 0, size)
	buf = appendPart(buf, []byte(tag))
	for _, p := range parts {
		buf = appendPart(buf, p)
	}
	mh, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		// sha2-256 is always available
		panic(fmt.Errorf("hashing address key: %w", err))
	}
	return Address{cid.NewCidV1(uint64(multicodec.Raw), mh)}
}

func appendPart(buf []byte, part []byte) []byte {
	buf = append(buf, varint.ToUvarint(uint64(len(part)))...)
	return append(buf, part...)
}
