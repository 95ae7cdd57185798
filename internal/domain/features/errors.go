package features

import "errors"

var (
	// ErrMalformedRecord means a W-L-D string had fewer than three tokens.
	ErrMalformedRecord = errors.New("malformed fight record")
	// ErrInvalidDate means a date of birth matched none of the accepted layouts.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidNumber means a numeric attribute had no leading number.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrVectorWidth means a decoded vector did not have Width slots.
	ErrVectorWidth = errors.New("feature vector has wrong width")
	// ErrUnknownPolicy is returned by ParsePolicy.
	ErrUnknownPolicy = errors.New("unknown nan policy")
)
