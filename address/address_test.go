package address

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/testing/fixtures"
	"github.com/stretchr/testify/require"
)

func TestDeterministic(t *testing.T) {
	p0 := Profile(fixtures.Alice.DID())
	p1 := Profile(fixtures.Alice.DID())
	require.True(t, p0.Equals(p1))
	require.Equal(t, p0.String(), p1.String())

	a0 := Agreement(p0, 0)
	require.True(t, a0.Equals(Agreement(p1, 0)))
	require.True(t, Packet(a0, "manager").Equals(Packet(a0, "manager")))
}

func TestDistinct(t *testing.T) {
	alice := Profile(fixtures.Alice.DID())
	bob := Profile(fixtures.Bob.DID())
	require.False(t, alice.Equals(bob))

	seen := map[string]string{}
	add := func(name string, a Address) {
		prev, ok := seen[a.String()]
		require.False(t, ok, "%s collides with %s", name, prev)
		seen[a.String()] = name
	}

	add("alice", alice)
	add("bob", bob)
	for i, seq := range []uint32{0, 1, 10, 11} {
		agreement := Agreement(alice, seq)
		add("alice agreement "+string(rune('a'+i)), agreement)
		add("bob agreement "+string(rune('a'+i)), Agreement(bob, seq))
		add("manager "+string(rune('a'+i)), Packet(agreement, "manager"))
		add("employee "+string(rune('a'+i)), Packet(agreement, "employee"))
	}

	// length prefixes keep shifted boundaries apart
	agreement := Agreement(alice, 1)
	require.False(t, Packet(agreement, "ab").Equals(Packet(agreement, "a")))
	require.False(t, Agreement(alice, 1).Equals(Agreement(alice, 11)))
}

func TestParse(t *testing.T) {
	a := Packet(Agreement(Profile(fixtures.Alice.DID()), 0), "manager")

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	require.True(t, a.Equals(parsed))

	fromLink, err := FromLink(a.Link())
	require.NoError(t, err)
	require.True(t, a.Equals(fromLink))

	_, err = Parse("not a cid")
	require.Error(t, err)

	_, err = Parse(fixtures.DocumentCID)
	require.Error(t, err)

	_, err = FromCid(cid.Undef)
	require.Error(t, err)
}

func TestUndef(t *testing.T) {
	require.False(t, Undef.Defined())
	require.Equal(t, "", Undef.String())
	require.True(t, Profile(did.Undef).Defined())
}
