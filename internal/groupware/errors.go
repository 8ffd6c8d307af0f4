package groupware

import "github.com/pkg/errors"

var (
	// ErrUnavailable reports that the groupware endpoint could not be
	// reached or answered outside its protocol.
	ErrUnavailable = errors.New("groupware unavailable")
)
