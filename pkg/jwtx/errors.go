package jwtx

import "errors"

var (
	// ErrMalformed reports a token string that could not be decoded as a JWT.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired reports a token whose "exp" claim is in the past.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrNotYetValid reports a token whose "nbf" claim is in the future.
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)
