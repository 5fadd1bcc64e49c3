package ledger

import (
	"fmt"

	"github.com/storacha/go-esign/core/result/failure"
)

// Failure names reported by ledger operations.
const (
	AlreadyExists              = "AlreadyExists"
	NotFound                   = "NotFound"
	InvalidArgument            = "InvalidArgument"
	Unauthorized               = "Unauthorized"
	NonPendingAgreement        = "NonPendingAgreement"
	IncompleteAgreement        = "IncompleteAgreement"
	AlreadySigned              = "AlreadySigned"
	MismatchedSigner           = "MismatchedSigner"
	SignatureVerificationError = "SignatureVerificationError"
	PacketLimitReached         = "PacketLimitReached"
)

// IsFailure reports whether err is, or wraps, a ledger failure with the given
// name.
func IsFailure(err error, name string) bool {
	return err != nil && failure.Name(err) == name
}

type ledgerError struct {
	failure.NamedWithStackTrace
	message string
	cause   error
}

func (le ledgerError) Error() string {
	if le.cause != nil {
		return fmt.Sprintf("%s: %s", le.message, le.cause)
	}
	return le.message
}

func (le ledgerError) Unwrap() error {
	return le.cause
}

func newFailure(name string, cause error, format string, args ...any) error {
	return ledgerError{failure.NamedWithCurrentStackTrace(name), fmt.Sprintf(format, args...), cause}
}

func NewAlreadyExistsError(kind string, key fmt.Stringer) error {
	return newFailure(AlreadyExists, nil, "%s already exists at %s", kind, key)
}

func NewNotFoundError(kind string, key fmt.Stringer) error {
	return newFailure(NotFound, nil, "%s not found at %s", kind, key)
}

func NewInvalidArgumentError(format string, args ...any) error {
	return newFailure(InvalidArgument, nil, format, args...)
}

func NewUnauthorizedError(format string, args ...any) error {
	return newFailure(Unauthorized, nil, format, args...)
}

func NewNonPendingAgreementError(agreement Agreement) error {
	return newFailure(NonPendingAgreement, nil, "agreement %s is %s", agreement.Address, agreement.Status)
}

func NewIncompleteAgreementError(agreement Agreement) error {
	return newFailure(IncompleteAgreement, nil, "agreement %s has %d of %d packets created", agreement.Address, agreement.CreatedPackets, agreement.TotalPackets)
}

func NewAlreadySignedError(packet Packet) error {
	return newFailure(AlreadySigned, nil, "packet %q of agreement %s is already signed", packet.Identifier, packet.Agreement)
}

func NewMismatchedSignerError(packet Packet, caller fmt.Stringer) error {
	return newFailure(MismatchedSigner, nil, "packet %q requires signer %s, called by %s", packet.Identifier, packet.RequiredSigner, caller)
}

func NewSignatureVerificationError(format string, args ...any) error {
	return newFailure(SignatureVerificationError, nil, format, args...)
}

func NewPacketLimitReachedError(agreement Agreement) error {
	return newFailure(PacketLimitReached, nil, "agreement %s already has all %d packets", agreement.Address, agreement.TotalPackets)
}
