package auth

import "fmt"

var (
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrInvalidSigningMethod = fmt.Errorf("invalid signing method")
)
