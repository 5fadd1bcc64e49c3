package multiformat

import (
	"testing"

	"github.com/storacha/go-esign/testing/helpers"
	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		b := []byte{1, 2, 3}
		tb := TagWith(0xed, b)
		utb := helpers.Must(UntagWith(0xed, tb, 0))
		require.EqualValues(t, b, utb)
	})

	t.Run("offset", func(t *testing.T) {
		tb := append([]byte{9, 9}, TagWith(1, []byte{4})...)
		require.EqualValues(t, []byte{4}, helpers.Must(UntagWith(1, tb, 2)))
	})

	t.Run("incorrect tag", func(t *testing.T) {
		tb := TagWith(1, []byte{1, 2, 3})
		_, err := UntagWith(2, tb, 0)
		require.Error(t, err)
		require.Equal(t, "expected multiformat with 0x2 tag instead got 0x1", err.Error())
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := Untag(nil)
		require.Error(t, err)
	})
}
