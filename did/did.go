package did

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
)

const Prefix = "did:"
const KeyPrefix = "did:key:"

const DIDCore = 0x0d1d
const Ed25519 = uint64(multicodec.Ed25519Pub)

var MethodOffset = varint.UvarintSize(uint64(DIDCore))

// DID is a party identity. The zero value is [Undef]. Two DIDs are equal when
// their string forms are equal, so DID values can be compared with == and used
// as map keys.
type DID struct {
	str string
}

// Undef is the undefined DID.
var Undef = DID{}

// Defined reports whether the DID is not [Undef].
func (d DID) Defined() bool {
	return d.str != ""
}

// DID returns the DID itself so a DID satisfies principal interfaces.
func (d DID) DID() DID {
	return d
}

// Bytes returns the binary representation of the DID. For did:key this is the
// multicodec tagged public key, for other methods it is the method specific
// identifier tagged with the DID core code.
func (d DID) Bytes() []byte {
	if !d.Defined() {
		return nil
	}
	if strings.HasPrefix(d.str, KeyPrefix) {
		_, bytes, err := multibase.Decode(d.str[len(KeyPrefix):])
		if err != nil {
			return nil
		}
		return bytes
	}
	suffix := d.str[len(Prefix):]
	buf := make([]byte, MethodOffset+len(suffix))
	varint.PutUvarint(buf, DIDCore)
	copy(buf[MethodOffset:], suffix)
	return buf
}

func (d DID) String() string {
	return d.str
}

func (d DID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.str)
}

func (d *DID) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if str == "" {
		*d = Undef
		return nil
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Decode a DID from its binary representation.
func Decode(bytes []byte) (DID, error) {
	code, _, err := varint.FromUvarint(bytes)
	if err != nil {
		return Undef, fmt.Errorf("reading DID code: %w", err)
	}
	switch code {
	case Ed25519:
		key, err := multibase.Encode(multibase.Base58BTC, bytes)
		if err != nil {
			return Undef, fmt.Errorf("encoding key: %w", err)
		}
		return DID{str: KeyPrefix + key}, nil
	case DIDCore:
		return DID{str: Prefix + string(bytes[MethodOffset:])}, nil
	}
	return Undef, fmt.Errorf("unsupported DID encoding: 0x%x", code)
}

// Parse a DID from its string form.
func Parse(str string) (DID, error) {
	if !strings.HasPrefix(str, Prefix) {
		return Undef, fmt.Errorf("must start with 'did:'")
	}
	if strings.HasPrefix(str, KeyPrefix) {
		code, bytes, err := multibase.Decode(str[len(KeyPrefix):])
		if err != nil {
			return Undef, fmt.Errorf("decoding multibase: %w", err)
		}
		if code != multibase.Base58BTC {
			return Undef, fmt.Errorf("not Base58BTC encoded")
		}
		return Decode(bytes)
	}
	if len(str) == len(Prefix) || !strings.Contains(str[len(Prefix):], ":") {
		return Undef, fmt.Errorf("missing DID method")
	}
	return DID{str: str}, nil
}
