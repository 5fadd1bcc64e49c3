package datamodel

import (
	// to use go:embed
	_ "embed"
	"fmt"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/schema"
)

//go:embed ledger.ipldsch
var ledgerSchema []byte

type ProfileModel struct {
	Owner           string
	AgreementsCount int64
	SignaturesCount int64
}

type AgreementModel struct {
	Profile        ipld.Link
	Sequence       int64
	Identifier     string
	Cid            string
	DescriptionCid string
	Status         string
	SignedPackets  int64
	CreatedPackets int64
	TotalPackets   int64
}

type PacketModel struct {
	Agreement      ipld.Link
	Identifier     string
	RequiredSigner *string
	Signer         *string
	EncryptedCid   *string
	Signed         bool
}

var (
	profileType   schema.Type
	agreementType schema.Type
	packetType    schema.Type
)

func init() {
	ts, err := ipld.LoadSchemaBytes(ledgerSchema)
	if err != nil {
		panic(fmt.Errorf("loading ledger schema: %w", err))
	}
	profileType = ts.TypeByName("Profile")
	agreementType = ts.TypeByName("Agreement")
	packetType = ts.TypeByName("Packet")
}

func ProfileType() schema.Type {
	return profileType
}

func AgreementType() schema.Type {
	return agreementType
}

func PacketType() schema.Type {
	return packetType
}

func Schema() []byte {
	return ledgerSchema
}
