package multiformat

import (
	"fmt"

	"github.com/multiformats/go-varint"
)

// TagWith prefixes bytes with the varint encoded multicodec code.
func TagWith(code uint64, bytes []byte) []byte {
	offset := varint.UvarintSize(code)
	tagged := make([]byte, len(bytes)+offset)
	varint.PutUvarint(tagged, code)
	copy(tagged[offset:], bytes)
	return tagged
}

// Untag splits tagged bytes into their multicodec code and payload.
func Untag(source []byte) (uint64, []byte, error) {
	code, n, err := varint.FromUvarint(source)
	if err != nil {
		return 0, nil, fmt.Errorf("reading multiformat tag: %w", err)
	}
	return code, source[n:], nil
}

// UntagWith strips the expected multicodec tag found at offset and returns
// the payload that follows it.
func UntagWith(code uint64, source []byte, offset int) ([]byte, error) {
	if offset > len(source) {
		return nil, fmt.Errorf("offset %d out of range for %d bytes", offset, len(source))
	}
	tag, payload, err := Untag(source[offset:])
	if err != nil {
		return nil, err
	}
	if tag != code {
		return nil, fmt.Errorf("expected multiformat with 0x%x tag instead got 0x%x", code, tag)
	}
	return payload, nil
}
