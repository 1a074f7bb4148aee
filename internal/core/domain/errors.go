package domain

import "errors"

var (
	// ErrNotFound means a referenced room or record is absent from the ledger.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPayload means caller-supplied data failed validation before
	// any ledger write or relay attempt (empty signal data, empty
	// participant list).
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrMissingField means a relay envelope did not carry a field its
	// signal type requires.
	ErrMissingField = errors.New("missing field for signal type")

	// ErrMustExist means a link-deletion record referenced an origin
	// link-creation record that could not be fetched. Link creation precedes
	// deletion causally in a well-formed chain, so this is a hard failure
	// rather than a silent drop.
	ErrMustExist = errors.New("origin link record must exist")

	// ErrSerialization means a payload did not match its expected shape.
	ErrSerialization = errors.New("payload does not match expected shape")
)
