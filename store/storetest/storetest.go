// Package storetest is a conformance suite for [store.Store] implementations.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/did"
	"github.com/storacha/go-esign/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStore constructs a fresh, empty store for a test. The returned store
// MUST be isolated from other tests.
type NewStore func(t *testing.T) store.Store

func key(name string) address.Address {
	id, err := did.Parse("did:web:" + name + ".example.com")
	if err != nil {
		panic(err)
	}
	return address.Profile(id)
}

func RunConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("UpdateViewRoundTrip", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, func(txn store.Txn) error {
			return txn.Put(key("a"), []byte("alpha"))
		})
		require.NoError(t, err)

		err = s.View(ctx, func(r store.Reader) error {
			v, err := r.Get(key("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("alpha"), v)

			ok, err := r.Has(key("a"))
			require.NoError(t, err)
			require.True(t, ok)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		err := s.View(ctx, func(r store.Reader) error {
			_, err := r.Get(key("missing"))
			require.True(t, store.IsNotFound(err))
			ok, err := r.Has(key("missing"))
			require.NoError(t, err)
			require.False(t, ok)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("InsertRejectsExisting", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(txn store.Txn) error {
			return txn.Insert(key("a"), []byte("first"))
		}))
		err := s.Update(ctx, func(txn store.Txn) error {
			return txn.Insert(key("a"), []byte("second"))
		})
		require.True(t, store.IsExists(err))

		require.NoError(t, s.View(ctx, func(r store.Reader) error {
			v, err := r.Get(key("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("first"), v)
			return nil
		}))
	})

	t.Run("InsertRejectsSameTransaction", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, func(txn store.Txn) error {
			if err := txn.Insert(key("a"), []byte("first")); err != nil {
				return err
			}
			return txn.Insert(key("a"), []byte("second"))
		})
		require.True(t, store.IsExists(err))
		require.NoError(t, s.View(ctx, func(r store.Reader) error {
			_, err := r.Get(key("a"))
			require.True(t, store.IsNotFound(err))
			return nil
		}))
	})

	t.Run("ReadYourWrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(txn store.Txn) error {
			require.NoError(t, txn.Put(key("a"), []byte("alpha")))
			v, err := txn.Get(key("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("alpha"), v)
			return nil
		}))
	})

	t.Run("FailedUpdateRollsBack", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(txn store.Txn) error {
			return txn.Put(key("a"), []byte("alpha"))
		}))

		boom := errors.New("boom")
		err := s.Update(ctx, func(txn store.Txn) error {
			require.NoError(t, txn.Put(key("a"), []byte("changed")))
			require.NoError(t, txn.Put(key("b"), []byte("beta")))
			return boom
		})
		require.ErrorIs(t, err, boom)

		require.NoError(t, s.View(ctx, func(r store.Reader) error {
			v, err := r.Get(key("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("alpha"), v)
			_, err = r.Get(key("b"))
			require.True(t, store.IsNotFound(err))
			return nil
		}))
	})

	t.Run("EntriesSorted", func(t *testing.T) {
		s := newStore(t)
		names := []string{"c", "a", "b", "d"}
		require.NoError(t, s.Update(ctx, func(txn store.Txn) error {
			for _, n := range names {
				if err := txn.Put(key(n), []byte(n)); err != nil {
					return err
				}
			}
			return nil
		}))

		require.NoError(t, s.View(ctx, func(r store.Reader) error {
			var keys []string
			for e, err := range r.Entries() {
				require.NoError(t, err)
				keys = append(keys, e.Key.String())
			}
			require.Len(t, keys, len(names))
			require.IsNonDecreasing(t, keys)
			return nil
		}))
	})

	t.Run("ConcurrentCounter", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(txn store.Txn) error {
			return txn.Put(key("counter"), []byte{0})
		}))

		const workers = 20
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, func(txn store.Txn) error {
					v, err := txn.Get(key("counter"))
					if err != nil {
						return err
					}
					return txn.Put(key("counter"), []byte{v[0] + 1})
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		require.NoError(t, s.View(ctx, func(r store.Reader) error {
			v, err := r.Get(key("counter"))
			require.NoError(t, err)
			require.Equal(t, byte(workers), v[0])
			return nil
		}))
	})

	t.Run("ConcurrentInsert", func(t *testing.T) {
		s := newStore(t)
		const workers = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		var won, lost int
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, func(txn store.Txn) error {
					return txn.Insert(key("slot"), []byte("x"))
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					won++
				} else if store.IsExists(err) {
					lost++
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, won)
		require.Equal(t, workers-1, lost)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := s.Update(cctx, func(txn store.Txn) error {
			return txn.Put(key("a"), []byte("alpha"))
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}
