package contact

import "errors"

// Sentinel kinds for decode failures.
var (
	ErrMalformedJSON = errors.New("malformed json body")
	ErrMalformedForm = errors.New("malformed form body")
	ErrBodyTooLarge  = errors.New("request body too large")
)
