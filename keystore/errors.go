package keystore

import (
	"errors"
	"fmt"
)

// InvalidPasswordError is returned when the checksum gate rejects the
// derived key. It is the only error a user can fix by retrying.
type InvalidPasswordError struct{}

func (*InvalidPasswordError) Error() string {
	return "wrong password or corrupted file"
}

// ErrInvalidPassword is the single InvalidPasswordError value returned by the decoder.
var ErrInvalidPassword error = &InvalidPasswordError{}

// UnsupportedVersionError is returned for keystore versions other than 1, 3 and 4.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	if e.Version == "" {
		return "unsupported keystore version: version field is missing"
	}
	return fmt.Sprintf("unsupported keystore version: %s", e.Version)
}

// MalformedKeystoreError reports a keystore that is structurally present but
// cannot be trusted, such as undecodable hex or a public key mismatch.
type MalformedKeystoreError struct {
	Field  string
	Reason string
	Err    error
}

func (e *MalformedKeystoreError) Error() string {
	msg := "malformed keystore"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedKeystoreError) Unwrap() error {
	return e.Err
}

// KdfParameterError reports KDF parameters outside the supported range.
type KdfParameterError struct {
	Param  string
	Reason string
}

func (e *KdfParameterError) Error() string {
	return fmt.Sprintf("invalid kdf parameter %s: %s", e.Param, e.Reason)
}

// CipherParameterError reports a cipher key, IV or ciphertext of the wrong shape.
type CipherParameterError struct {
	Param  string
	Reason string
}

func (e *CipherParameterError) Error() string {
	return fmt.Sprintf("invalid cipher parameter %s: %s", e.Param, e.Reason)
}

func malformed(field, reason string, err error) error {
	return &MalformedKeystoreError{Field: field, Reason: reason, Err: err}
}

// IsInvalidPassword reports whether err was caused by a wrong password.
func IsInvalidPassword(err error) bool {
	var target *InvalidPasswordError
	return errors.As(err, &target)
}
