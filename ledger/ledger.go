// Package ledger is the authorization and signing state machine for
// electronic signature agreements.
//
// A party creates a [Profile], originates an [Agreement] that declares how
// many signature packets it needs, creates each named [Packet] and then every
// packet is signed with a companion verification assertion binding the
// signature to that exact packet. Each operation runs in a single store
// transaction and checks every precondition before writing, so a rejected
// call leaves all records untouched.
package ledger

import (
	"fmt"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/storacha/go-esign/core/result/failure"
	"github.com/storacha/go-esign/store"
)

var log = logging.Logger("ledger")

// ContentValidator checks an opaque content handle at the boundary. A nil
// validator accepts any non-empty handle.
type ContentValidator func(handle string) error

// CIDContentValidator accepts handles that parse as CIDs.
func CIDContentValidator(handle string) error {
	if _, err := cid.Decode(handle); err != nil {
		return fmt.Errorf("content handle %q is not a CID: %w", handle, err)
	}
	return nil
}

type Option func(*Ledger)

// WithContentValidator validates every content handle passed to the ledger.
func WithContentValidator(v ContentValidator) Option {
	return func(l *Ledger) {
		l.validateContent = v
	}
}

type Ledger struct {
	store           store.Store
	validateContent ContentValidator
}

func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{store: s}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) checkContent(field, handle string) error {
	if handle == "" {
		return NewInvalidArgumentError("%s must not be empty", field)
	}
	if l.validateContent == nil {
		return nil
	}
	if err := l.validateContent(handle); err != nil {
		return newFailure(InvalidArgument, err, "invalid %s", field)
	}
	return nil
}

func rejected(op string, err error, keysAndValues ...any) {
	kv := append([]any{"op", op, "error", err}, keysAndValues...)
	if name := failure.Name(err); name != "" {
		log.Debugw("rejected", append(kv, "failure", name)...)
		return
	}
	log.Warnw("failed", kv...)
}
