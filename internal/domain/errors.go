package domain

import "errors"

var (
	// ErrNotAdministrator is returned when an administrator-only operation is
	// invoked by another caller
	ErrNotAdministrator = errors.New("caller is not the administrator")

	// ErrUnknownTokenClass is returned when a referenced class id has never
	// been created
	ErrUnknownTokenClass = errors.New("unknown token class")

	// ErrInsufficientBalance is returned when a burn or transfer would reduce
	// a balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrArrayLengthMismatch is returned when a batch operation's parallel
	// arrays differ in length
	ErrArrayLengthMismatch = errors.New("array length mismatch")

	// ErrArithmeticOverflow is returned when balance accounting would
	// overflow the integer representation
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrTransfersDisabled is returned when a transfer is attempted while the
	// transfers gate is closed and the caller is not the administrator
	ErrTransfersDisabled = errors.New("transfers disabled")

	// ErrEmptyName is returned when the ledger name is updated with an empty
	// string
	ErrEmptyName = errors.New("empty name")

	// ErrInvalidAddress is returned at the runtime boundary when a caller or
	// holder address fails validation
	ErrInvalidAddress = errors.New("invalid address")
)
