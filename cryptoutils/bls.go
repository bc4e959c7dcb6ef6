package cryptoutils

import (
	"errors"
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BLSPublicKeySize is the length of a compressed BLS12-381 G1 public key.
const BLSPublicKeySize = bls12381.SizeOfG1AffineCompressed

var (
	ErrInvalidBLSSecret    = errors.New("secret is not a valid BLS12-381 scalar")
	ErrInvalidBLSPublicKey = errors.New("invalid BLS12-381 public key")
)

// BLSPublicKey derives the compressed G1 public key for a 32-byte big-endian
// BLS12-381 secret, in the serialization used by Ethereum validator keys.
func BLSPublicKey(secret []byte) ([]byte, error) {
	s := new(big.Int).SetBytes(secret)
	defer s.SetInt64(0)

	if s.Sign() == 0 || s.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrInvalidBLSSecret
	}

	var pk bls12381.G1Affine
	pk.ScalarMultiplicationBase(s)
	compressed := pk.Bytes()
	return compressed[:], nil
}

// ValidateBLSPublicKey checks that data is a compressed G1 point in the
// prime-order subgroup and not the identity.
func ValidateBLSPublicKey(data []byte) error {
	if len(data) != BLSPublicKeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidBLSPublicKey, BLSPublicKeySize, len(data))
	}

	var pk bls12381.G1Affine
	if _, err := pk.SetBytes(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBLSPublicKey, err)
	}
	if pk.IsInfinity() {
		return fmt.Errorf("%w: point at infinity", ErrInvalidBLSPublicKey)
	}
	return nil
}
