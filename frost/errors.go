package frost

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the protocol operations. Callers should test
// for them with errors.Is; most are wrapped with additional context.
var (
	ErrInvalidParameters       = errors.New("frost: invalid parameters")
	ErrInvalidIdentifier       = errors.New("frost: invalid identifier")
	ErrDuplicateIdentifier     = errors.New("frost: duplicate identifier")
	ErrMissingParticipant      = errors.New("frost: participant not in signing package")
	ErrInsufficientCommitments = errors.New("frost: fewer commitments than the threshold")
	ErrInsufficientShares      = errors.New("frost: fewer signature shares than the threshold")
	ErrIncorrectNumberOfShares = errors.New("frost: number of shares does not match the signing package")
	ErrUnknownIdentifier       = errors.New("frost: unknown identifier")
	ErrInvalidSignatureShare   = errors.New("frost: invalid signature share")
	ErrInvalidSignature        = errors.New("frost: invalid signature")
	ErrNonceReuse              = errors.New("frost: signing nonces already used")
	ErrIncorrectCommitment     = errors.New("frost: commitment does not match signing nonces")
	ErrInvalidCommitment       = errors.New("frost: invalid commitment")
	ErrInvalidSecretShare      = errors.New("frost: secret share does not match its commitment")
	ErrMalformed               = errors.New("frost: malformed encoding")
)

// ShareError reports the participant whose signature share failed
// verification during aggregation. It unwraps to ErrInvalidSignatureShare.
type ShareError struct {
	ID Identifier
}

func (e *ShareError) Error() string {
	return fmt.Sprintf("%v from participant %s", ErrInvalidSignatureShare, e.ID)
}

func (e *ShareError) Unwrap() error {
	return ErrInvalidSignatureShare
}
