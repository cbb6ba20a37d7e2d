package bignum

import "errors"

var (
	// ErrAllocation is returned when a magnitude cannot obtain the words it
	// needs. The magnitude involved keeps its previous value.
	ErrAllocation = errors.New("bignum: allocation failed")

	// ErrNilMagnitude is returned when an operation receives a nil handle.
	ErrNilMagnitude = errors.New("bignum: nil magnitude")

	// ErrInvalidArgument is returned for negative sizes or lengths.
	ErrInvalidArgument = errors.New("bignum: invalid argument")
)
