package store_test

import (
	"testing"

	"github.com/storacha/go-esign/store"
	"github.com/storacha/go-esign/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.RunConformance(t, func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})
}
