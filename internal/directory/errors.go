package directory

import "github.com/pkg/errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("directory unavailable")
)
