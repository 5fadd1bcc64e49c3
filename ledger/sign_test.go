package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/attest"
	"github.com/storacha/go-esign/crypto/signature"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/principal"
	"github.com/storacha/go-esign/store"
	"github.com/storacha/go-esign/testing/fixtures"
	"github.com/storacha/go-esign/testing/helpers"
	"github.com/stretchr/testify/require"
)

func TestSigningMessage(t *testing.T) {
	a := address.Agreement(address.Profile(fixtures.Alice.DID()), 0)
	require.Equal(t, []byte("manager "+a.String()), SigningMessage("manager", a))
}

// setupSigning creates profiles for every fixture party and a pending
// agreement by Alice with a "manager" packet bound to Bob and an open
// "employee" packet.
func setupSigning(t *testing.T) (*Ledger, *store.MemoryStore, Agreement) {
	t.Helper()
	l, s := newLedger(t)
	createProfiles(t, l, fixtures.Alice, fixtures.Bob, fixtures.Mallory)
	a := createAgreement(t, l, fixtures.Alice, 2)
	bob := fixtures.Bob.DID()
	_, err := l.InitializeSignaturePacket(context.Background(), fixtures.Alice.DID(), a.Address, "manager", &bob)
	require.NoError(t, err)
	_, err = l.InitializeSignaturePacket(context.Background(), fixtures.Alice.DID(), a.Address, "employee", nil)
	require.NoError(t, err)
	return l, s, a
}

func TestSignSignaturePacket(t *testing.T) {
	ctx := context.Background()

	t.Run("updates packet, agreement and signer profile", func(t *testing.T) {
		l, _, a := setupSigning(t)
		params, assertion := signParams(t, fixtures.Bob, a.Address, "manager")

		p, err := l.SignSignaturePacket(ctx, fixtures.Bob.DID(), a.Address, "manager", params, assertion)
		require.NoError(t, err)
		require.True(t, p.Signed)
		require.Equal(t, fixtures.Bob.DID(), *p.Signer)
		require.Equal(t, params.FinalizedCID, *p.EncryptedCID)

		stored, err := l.Packet(ctx, a.Address, "manager")
		require.NoError(t, err)
		require.Equal(t, p, stored)

		bob, err := l.Profile(ctx, fixtures.Bob.DID())
		require.NoError(t, err)
		require.Equal(t, uint32(1), bob.SignaturesCount)

		alice, err := l.Profile(ctx, fixtures.Alice.DID())
		require.NoError(t, err)
		require.Zero(t, alice.SignaturesCount)
	})

	t.Run("signed twice", func(t *testing.T) {
		l, s, a := setupSigning(t)
		first, err := sign(t, l, fixtures.Mallory, a.Address, "employee")
		require.NoError(t, err)
		before := records(t, s)

		_, err = sign(t, l, fixtures.Mallory, a.Address, "employee")
		require.True(t, IsFailure(err, AlreadySigned), "got %v", err)
		_, err = sign(t, l, fixtures.Alice, a.Address, "employee")
		require.True(t, IsFailure(err, AlreadySigned), "got %v", err)
		require.Equal(t, before, records(t, s))

		p, err := l.Packet(ctx, a.Address, "employee")
		require.NoError(t, err)
		require.Equal(t, first, p)
	})

	t.Run("incomplete agreement", func(t *testing.T) {
		l, s := newLedger(t)
		createProfiles(t, l, fixtures.Alice, fixtures.Bob)
		a := createAgreement(t, l, fixtures.Alice, 2)
		_, err := l.InitializeSignaturePacket(ctx, fixtures.Alice.DID(), a.Address, "manager", nil)
		require.NoError(t, err)
		before := records(t, s)

		_, err = sign(t, l, fixtures.Bob, a.Address, "manager")
		require.True(t, IsFailure(err, IncompleteAgreement), "got %v", err)
		require.Equal(t, before, records(t, s))
	})

	t.Run("required signer", func(t *testing.T) {
		l, s, a := setupSigning(t)
		before := records(t, s)

		// a perfectly valid proof from the wrong party
		_, err := sign(t, l, fixtures.Mallory, a.Address, "manager")
		require.True(t, IsFailure(err, MismatchedSigner), "got %v", err)
		require.Equal(t, before, records(t, s))
	})

	t.Run("missing packet", func(t *testing.T) {
		l, _, a := setupSigning(t)
		_, err := sign(t, l, fixtures.Bob, a.Address, "witness")
		require.True(t, IsFailure(err, NotFound), "got %v", err)
	})

	t.Run("missing agreement", func(t *testing.T) {
		l, _, _ := setupSigning(t)
		missing := address.Agreement(address.Profile(fixtures.Alice.DID()), 9)
		_, err := sign(t, l, fixtures.Bob, missing, "manager")
		require.True(t, IsFailure(err, NotFound), "got %v", err)
	})

	t.Run("signer without profile", func(t *testing.T) {
		l, s := newLedger(t)
		createProfiles(t, l, fixtures.Alice)
		a := createAgreement(t, l, fixtures.Alice, 1)
		_, err := l.InitializeSignaturePacket(ctx, fixtures.Alice.DID(), a.Address, "witness", nil)
		require.NoError(t, err)
		before := records(t, s)

		_, err = sign(t, l, fixtures.Service, a.Address, "witness")
		require.True(t, IsFailure(err, NotFound), "got %v", err)
		require.Equal(t, before, records(t, s))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		l, s, a := setupSigning(t)
		before := records(t, s)
		valid, assertion := signParams(t, fixtures.Mallory, a.Address, "employee")

		for _, tc := range []struct {
			name   string
			caller did.DID
			modify func(*SignParams)
		}{
			{"empty finalized cid", fixtures.Mallory.DID(), func(p *SignParams) { p.FinalizedCID = "" }},
			{"missing signature", fixtures.Mallory.DID(), func(p *SignParams) { p.Signature = nil }},
			{"undefined signer", fixtures.Mallory.DID(), func(p *SignParams) { p.Signer = did.Undef }},
			{"undefined caller", did.Undef, func(p *SignParams) {}},
		} {
			t.Run(tc.name, func(t *testing.T) {
				params := valid
				tc.modify(&params)
				_, err := l.SignSignaturePacket(ctx, tc.caller, a.Address, "employee", params, assertion)
				require.True(t, IsFailure(err, InvalidArgument), "got %v", err)
				require.Equal(t, before, records(t, s))
			})
		}
	})
}

func TestSignatureBinding(t *testing.T) {
	ctx := context.Background()

	// each case produces the params and assertion Mallory presents when
	// signing the open "employee" packet
	for _, tc := range []struct {
		name  string
		forge func(t *testing.T, a Agreement) (SignParams, attest.Assertion)
	}{
		{
			name: "missing assertion",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				params, _ := signParams(t, fixtures.Mallory, a.Address, "employee")
				return params, nil
			},
		},
		{
			name: "proof for another packet",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				return signParams(t, fixtures.Mallory, a.Address, "manager")
			},
		},
		{
			name: "proof for another agreement",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				other := address.Agreement(a.Profile, a.Sequence+1)
				return signParams(t, fixtures.Mallory, other, "employee")
			},
		},
		{
			name: "proof over the bare identifier",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				msg := []byte("employee")
				sig := fixtures.Mallory.Sign(msg)
				assertion := helpers.Must(platform.Verify(fixtures.Mallory.DID(), msg, sig))
				return SignParams{Signature: sig, FinalizedCID: fixtures.DocumentCID, Signer: fixtures.Mallory.DID()}, assertion
			},
		},
		{
			name: "assertion names someone else",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				params, _ := signParams(t, fixtures.Mallory, a.Address, "employee")
				_, assertion := signParams(t, fixtures.Bob, a.Address, "employee")
				return params, assertion
			},
		},
		{
			name: "claims someone else's signature",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				// Bob's genuine proof for this exact packet, replayed by Mallory
				return signParams(t, fixtures.Bob, a.Address, "employee")
			},
		},
		{
			name: "substituted signature",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				params, assertion := signParams(t, fixtures.Mallory, a.Address, "employee")
				params.Signature = signature.NewSignature(signature.EdDSA, helpers.RandomBytes(64))
				return params, assertion
			},
		},
		{
			name: "unverified assertion with wrong message",
			forge: func(t *testing.T, a Agreement) (SignParams, attest.Assertion) {
				msg := SigningMessage("employee", a.Address)
				sig := fixtures.Mallory.Sign(msg)
				forged := attest.NewAssertion(fixtures.Mallory.DID(), append(msg, '!'), sig)
				return SignParams{Signature: sig, FinalizedCID: fixtures.DocumentCID, Signer: fixtures.Mallory.DID()}, forged
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l, s, a := setupSigning(t)
			before := records(t, s)

			params, assertion := tc.forge(t, a)
			_, err := l.SignSignaturePacket(ctx, fixtures.Mallory.DID(), a.Address, "employee", params, assertion)
			require.True(t, IsFailure(err, SignatureVerificationError), "got %v", err)
			require.Equal(t, before, records(t, s))
		})
	}
}

func TestConcurrentSign(t *testing.T) {
	ctx := context.Background()
	l, _, a := setupSigning(t)

	parties := []principal.Signer{fixtures.Alice, fixtures.Bob, fixtures.Mallory}
	var (
		wg       sync.WaitGroup
		signed   atomic.Int32
		rejected atomic.Int32
	)
	for range 4 {
		for _, party := range parties {
			params, assertion := signParams(t, party, a.Address, "employee")
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.SignSignaturePacket(ctx, party.DID(), a.Address, "employee", params, assertion)
				switch {
				case err == nil:
					signed.Add(1)
				case IsFailure(err, AlreadySigned):
					rejected.Add(1)
				}
			}()
		}
	}
	wg.Wait()
	require.Equal(t, int32(1), signed.Load())
	require.Equal(t, int32(4*len(parties)-1), rejected.Load())

	a, err := l.Agreement(ctx, a.Address)
	require.NoError(t, err)
	require.Equal(t, uint32(1), a.SignedPackets)

	var total uint32
	for _, party := range parties {
		p, err := l.Profile(ctx, party.DID())
		require.NoError(t, err)
		total += p.SignaturesCount
	}
	require.Equal(t, uint32(1), total)
}

func TestCounterConsistency(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	parties := []principal.Signer{fixtures.Alice, fixtures.Bob, fixtures.Mallory}
	createProfiles(t, l, parties...)

	// every party originates one agreement with a packet per party and then
	// everyone signs the packet named after them
	signedBy := map[did.DID]uint32{}
	var agreements []Agreement
	for _, originator := range parties {
		a := createAgreement(t, l, originator, uint32(len(parties)))
		for i := range parties {
			_, err := l.InitializeSignaturePacket(ctx, originator.DID(), a.Address, slotName(i), nil)
			require.NoError(t, err)
		}
		agreements = append(agreements, a)
	}
	for _, a := range agreements {
		for i, party := range parties {
			_, err := sign(t, l, party, a.Address, slotName(i))
			require.NoError(t, err)
			signedBy[party.DID()]++

			current, err := l.Agreement(ctx, a.Address)
			require.NoError(t, err)
			require.Equal(t, uint32(i+1), current.SignedPackets)
			require.Equal(t, current.SignedPackets == current.TotalPackets, current.Status == Completed)
		}
	}

	for _, party := range parties {
		p, err := l.Profile(ctx, party.DID())
		require.NoError(t, err)
		require.Equal(t, uint32(1), p.AgreementsCount)
		require.Equal(t, signedBy[party.DID()], p.SignaturesCount)
	}
}

func slotName(i int) string {
	return []string{"first", "second", "third"}[i]
}
