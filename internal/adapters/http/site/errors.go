package site

import (
	"errors"
	"fmt"
)

// Sentinel kinds for site errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUnknownPage     = errors.New("unknown page")
	ErrRender          = errors.New("page render failed")
)

// WrapKind tags err with the operation and a sentinel kind so callers can
// match on the kind with errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
