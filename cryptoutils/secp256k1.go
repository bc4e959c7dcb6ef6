package cryptoutils

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Secp256k1PublicKey derives the public key of a 32-byte secp256k1 secret and
// encodes it in the requested length: 33 (compressed), 64 (uncompressed
// without the 0x04 prefix) or 65 (uncompressed).
func Secp256k1PublicKey(secret []byte, size int) ([]byte, error) {
	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 secret: %w", err)
	}
	return encodeSecp256k1(&key.PublicKey, size)
}

// Secp256k1Address returns the Ethereum address controlled by a secp256k1 secret.
func Secp256k1Address(secret []byte) (common.Address, error) {
	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid secp256k1 secret: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func encodeSecp256k1(pub *ecdsa.PublicKey, size int) ([]byte, error) {
	switch size {
	case 33:
		return crypto.CompressPubkey(pub), nil
	case 64:
		return crypto.FromECDSAPub(pub)[1:], nil
	case 65:
		return crypto.FromECDSAPub(pub), nil
	default:
		return nil, fmt.Errorf("unsupported secp256k1 public key length %d", size)
	}
}

// WipeBytes zeroes secret material in place.
func WipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
