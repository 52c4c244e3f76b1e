package hxpostcode

import (
	"errors"

	"github.com/pthm/hxpostcode/binding"
)

// Sentinel errors for registry operations.
var (
	ErrUnknownBinding   = errors.New("hxpostcode: unknown binding")
	ErrUnknownEvent     = binding.ErrUnknownEvent
	ErrInvalidToken     = errors.New("hxpostcode: invalid token")
	ErrSignatureInvalid = errors.New("hxpostcode: token signature verification failed")
	ErrDecryptFailed    = errors.New("hxpostcode: token decryption failed")
	ErrTokenExpired     = errors.New("hxpostcode: token expired")
	ErrRateLimited      = errors.New("hxpostcode: rate limited")
	ErrBadPayload       = errors.New("hxpostcode: malformed callback payload")
)

// IsNotFound checks if err means the binding or event does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownBinding) || errors.Is(err, ErrUnknownEvent)
}

// IsTokenError checks if err is a token format, signature, decryption or
// expiry error.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrTokenExpired)
}

// IsRateLimited checks if err is a rate limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
