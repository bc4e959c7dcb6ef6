package cryptoutils

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
)

// RSAPublicKeyMarker is the PEM header every operator key must start with.
const RSAPublicKeyMarker = "-----BEGIN RSA PUBLIC KEY-----"

// ErrInvalidOperatorKey is returned for any operator key that cannot be used
// for share encryption.
var ErrInvalidOperatorKey = errors.New("invalid operator key format, make sure the operator exists in the network")

// OperatorKey is a base64-encoded RSA public key in PEM format, as published
// for network operators.
type OperatorKey string

// NewOperatorKey creates an operator key from its base64 form with validation.
func NewOperatorKey(encoded string) (OperatorKey, error) {
	if _, err := OperatorKey(encoded).PublicKey(); err != nil {
		return "", err
	}
	return OperatorKey(encoded), nil
}

// Validate checks if the operator key is properly formed.
func (k OperatorKey) Validate() error {
	_, err := k.PublicKey()
	return err
}

// PEM returns the decoded PEM text.
func (k OperatorKey) PEM() (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(k)))
	if err != nil {
		return "", ErrInvalidOperatorKey
	}
	return string(decoded), nil
}

// PublicKey returns the parsed RSA public key.
func (k OperatorKey) PublicKey() (*rsa.PublicKey, error) {
	decoded, err := k.PEM()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(decoded, RSAPublicKeyMarker) {
		return nil, ErrInvalidOperatorKey
	}

	block, _ := pem.Decode([]byte(decoded))
	if block == nil {
		return nil, ErrInvalidOperatorKey
	}

	// Try PKCS#1 first, some tooling wraps PKIX bodies in an RSA header.
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidOperatorKey
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidOperatorKey
	}
	return key, nil
}

// CheckOperatorKey reports whether an operator key is usable, returning a
// human-readable message when it is not.
func CheckOperatorKey(encoded string) (bool, string) {
	if err := OperatorKey(encoded).Validate(); err != nil {
		return false, err.Error()
	}
	return true, ""
}
