package keystore

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// ChecksumFunction names the digest used by the checksum gate.
type ChecksumFunction string

const (
	// ChecksumSHA256 is the EIP-2335 checksum.
	ChecksumSHA256 ChecksumFunction = "sha256"
	// ChecksumKeccak256 is the Web3 Secret Storage "mac" used by v1 and v3.
	ChecksumKeccak256 ChecksumFunction = "keccak256"
)

// ComputeChecksum digests derivedKeySlice || ciphertext.
func ComputeChecksum(fn ChecksumFunction, derivedKeySlice, ciphertext []byte) ([]byte, error) {
	switch fn {
	case ChecksumSHA256:
		h := sha256.New()
		h.Write(derivedKeySlice)
		h.Write(ciphertext)
		return h.Sum(nil), nil
	case ChecksumKeccak256:
		return crypto.Keccak256(derivedKeySlice, ciphertext), nil
	default:
		return nil, fmt.Errorf("unsupported checksum function %q", fn)
	}
}

// VerifyChecksum reports whether the digest of derivedKeySlice || ciphertext
// matches expectedHex. The hex forms are compared in constant time.
func VerifyChecksum(fn ChecksumFunction, derivedKeySlice, ciphertext []byte, expectedHex string) bool {
	digest, err := ComputeChecksum(fn, derivedKeySlice, ciphertext)
	if err != nil {
		return false
	}

	actual := []byte(hex.EncodeToString(digest))
	expected := []byte(strings.ToLower(strings.TrimPrefix(expectedHex, "0x")))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}
