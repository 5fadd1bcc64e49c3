package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAgreement(t *testing.T) {
	ctx := context.Background()

	t.Run("pending with zero counters", func(t *testing.T) {
		l, _ := newLedger(t)
		createProfiles(t, l, fixtures.Alice)
		a := createAgreement(t, l, fixtures.Alice, 3)

		profileAddr := address.Profile(fixtures.Alice.DID())
		require.Equal(t, address.Agreement(profileAddr, 0), a.Address)
		require.Equal(t, profileAddr, a.Profile)
		require.Equal(t, Pending, a.Status)
		require.Zero(t, a.SignedPackets)
		require.Zero(t, a.CreatedPackets)
		require.Equal(t, uint32(3), a.TotalPackets)

		stored, err := l.Agreement(ctx, a.Address)
		require.NoError(t, err)
		require.Equal(t, a, stored)

		p, err := l.Profile(ctx, fixtures.Alice.DID())
		require.NoError(t, err)
		require.Equal(t, uint32(1), p.AgreementsCount)
	})

	t.Run("sequence advances", func(t *testing.T) {
		l, _ := newLedger(t)
		createProfiles(t, l, fixtures.Alice)
		a0 := createAgreement(t, l, fixtures.Alice, 1)
		a1 := createAgreement(t, l, fixtures.Alice, 1)
		require.Equal(t, uint32(0), a0.Sequence)
		require.Equal(t, uint32(1), a1.Sequence)
		require.False(t, a0.Address.Equals(a1.Address))

		all, err := l.Agreements(ctx, fixtures.Alice.DID())
		require.NoError(t, err)
		require.Equal(t, []Agreement{a0, a1}, all)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		valid := AgreementParams{
			Identifier:     "nda",
			CID:            fixtures.DocumentCID,
			DescriptionCID: fixtures.DescriptionCID,
			TotalPackets:   1,
		}
		for _, tc := range []struct {
			name   string
			modify func(*AgreementParams)
		}{
			{"zero packets", func(p *AgreementParams) { p.TotalPackets = 0 }},
			{"empty identifier", func(p *AgreementParams) { p.Identifier = "" }},
			{"empty cid", func(p *AgreementParams) { p.CID = "" }},
			{"empty description", func(p *AgreementParams) { p.DescriptionCID = "" }},
		} {
			t.Run(tc.name, func(t *testing.T) {
				l, s := newLedger(t)
				createProfiles(t, l, fixtures.Alice)
				before := records(t, s)

				params := valid
				tc.modify(&params)
				_, err := l.InitializeAgreement(ctx, fixtures.Alice.DID(), params)
				require.True(t, IsFailure(err, InvalidArgument), "got %v", err)
				require.Equal(t, before, records(t, s))
			})
		}
	})

	t.Run("undefined originator", func(t *testing.T) {
		l, _ := newLedger(t)
		_, err := l.InitializeAgreement(ctx, did.Undef, AgreementParams{Identifier: "x", CID: "a", DescriptionCID: "b", TotalPackets: 1})
		require.True(t, IsFailure(err, InvalidArgument), "got %v", err)
	})

	t.Run("originator without profile", func(t *testing.T) {
		l, s := newLedger(t)
		_, err := l.InitializeAgreement(ctx, fixtures.Bob.DID(), AgreementParams{Identifier: "x", CID: "a", DescriptionCID: "b", TotalPackets: 1})
		require.True(t, IsFailure(err, NotFound), "got %v", err)
		require.Zero(t, s.Len())
	})

	t.Run("content validator", func(t *testing.T) {
		l, s := newLedger(t, WithContentValidator(CIDContentValidator))
		createProfiles(t, l, fixtures.Alice)
		before := records(t, s)

		_, err := l.InitializeAgreement(ctx, fixtures.Alice.DID(), AgreementParams{
			Identifier:     "nda",
			CID:            "not a cid",
			DescriptionCID: fixtures.DescriptionCID,
			TotalPackets:   1,
		})
		require.True(t, IsFailure(err, InvalidArgument), "got %v", err)
		require.Equal(t, before, records(t, s))

		createAgreement(t, l, fixtures.Alice, 1)
	})

	t.Run("missing agreement", func(t *testing.T) {
		l, _ := newLedger(t)
		_, err := l.Agreement(ctx, address.Agreement(address.Profile(fixtures.Alice.DID()), 0))
		require.True(t, IsFailure(err, NotFound), "got %v", err)
	})

	t.Run("concurrent creation keeps every increment", func(t *testing.T) {
		l, _ := newLedger(t)
		createProfiles(t, l, fixtures.Alice)

		const n = 16
		var wg sync.WaitGroup
		addrs := make([]address.Address, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a, err := l.InitializeAgreement(ctx, fixtures.Alice.DID(), AgreementParams{
					Identifier:     "batch",
					CID:            fixtures.DocumentCID,
					DescriptionCID: fixtures.DescriptionCID,
					TotalPackets:   1,
				})
				assert.NoError(t, err)
				addrs[i] = a.Address
			}()
		}
		wg.Wait()

		p, err := l.Profile(ctx, fixtures.Alice.DID())
		require.NoError(t, err)
		require.Equal(t, uint32(n), p.AgreementsCount)

		seen := map[address.Address]struct{}{}
		for _, addr := range addrs {
			seen[addr] = struct{}{}
		}
		require.Len(t, seen, n)
	})
}
