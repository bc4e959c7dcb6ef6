package keystore

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/validator-keyshares/cryptoutils"
)

// PrivateKeySize is the length of every key the decoder recovers.
const PrivateKeySize = 32

// RecoveredKey is the result of a successful decode.
type RecoveredKey struct {
	// PrivateKeyHex is the 64-character hex secret without 0x prefix.
	PrivateKeyHex string
	// PublicKeyHex is the declared pubkey when the file has one, otherwise the
	// derived uncompressed secp256k1 key without its 0x04 prefix.
	PublicKeyHex string
}

// Wallet is the account-shaped result of importing a v4 keystore.
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// PrivateKeyHex returns the wallet secret as 64 hex characters.
func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(w.PrivateKey))
}

// Decode recovers the private key of a keystore.
//
// Errors: *UnsupportedVersionError, ErrInvalidPassword (an
// *InvalidPasswordError), *MalformedKeystoreError, *KdfParameterError and
// *CipherParameterError.
func Decode(ks *Keystore, password string) (*RecoveredKey, error) {
	return DecodeContext(context.Background(), ks, password)
}

// DecodeContext is Decode with a cancellable key derivation.
func DecodeContext(ctx context.Context, ks *Keystore, password string) (*RecoveredKey, error) {
	desc, err := Normalize(ks)
	if err != nil {
		return nil, err
	}

	secret, err := decryptSecret(ctx, desc, password)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.WipeBytes(secret)

	publicKey, err := verifyPublicKey(desc, secret)
	if err != nil {
		return nil, err
	}

	return &RecoveredKey{
		PrivateKeyHex: hex.EncodeToString(secret),
		PublicKeyHex:  hex.EncodeToString(publicKey),
	}, nil
}

// DecodeJSON parses and decodes keystore JSON in one step.
func DecodeJSON(data []byte, password string) (*RecoveredKey, error) {
	ks, err := ParseKeystore(data)
	if err != nil {
		return nil, err
	}
	return Decode(ks, password)
}

// FromV4 imports a v4 keystore as a secp256k1 wallet.
func FromV4(ks *Keystore, password string) (*Wallet, error) {
	return FromV4Context(context.Background(), ks, password)
}

// FromV4Context is FromV4 with a cancellable key derivation.
func FromV4Context(ctx context.Context, ks *Keystore, password string) (*Wallet, error) {
	if ks == nil || ks.Version != 4 || ks.V4 == nil {
		version := ""
		if ks != nil {
			version = fmt.Sprint(ks.Version)
		}
		return nil, &UnsupportedVersionError{Version: version}
	}

	desc, err := Normalize(ks)
	if err != nil {
		return nil, err
	}

	secret, err := decryptSecret(ctx, desc, password)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.WipeBytes(secret)

	if _, err := verifyPublicKey(desc, secret); err != nil {
		return nil, err
	}

	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, malformed("crypto.cipher.message", "recovered key is not a valid secp256k1 key", err)
	}
	return &Wallet{PrivateKey: key, Address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// decryptSecret runs derive, checksum gate and decrypt. Nothing is decrypted
// unless the checksum matches.
func decryptSecret(ctx context.Context, desc *Descriptor, password string) ([]byte, error) {
	pw := []byte(password)
	derived, err := DeriveKeyContext(ctx, pw, desc.KDF)
	cryptoutils.WipeBytes(pw)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.WipeBytes(derived)

	if !VerifyChecksum(desc.Checksum.Function, derived[16:32], desc.Cipher.CipherText, desc.Checksum.Message) {
		return nil, ErrInvalidPassword
	}

	cipherKey := derived[:16]
	if desc.HashedCipherKey {
		cipherKey = crypto.Keccak256(derived[:16])[:16]
		defer cryptoutils.WipeBytes(cipherKey)
	}

	secret, err := Transform(desc.Cipher.Function, cipherKey, desc.Cipher.IV, desc.Cipher.CipherText, Decrypt)
	if err != nil {
		return nil, err
	}
	if len(secret) != PrivateKeySize {
		cryptoutils.WipeBytes(secret)
		return nil, malformed("cipher message", fmt.Sprintf("decrypted key is %d bytes, want %d", len(secret), PrivateKeySize), nil)
	}
	return secret, nil
}

// verifyPublicKey checks secret against the declared pubkey and address.
// The curve follows the declared key's length: 48 bytes is a BLS12-381
// validator key, 33/64/65 bytes is secp256k1. Without a declared pubkey
// nothing is cross-checked and the uncompressed secp256k1 key is reported,
// left empty when secret is not a secp256k1 scalar.
func verifyPublicKey(desc *Descriptor, secret []byte) ([]byte, error) {
	var publicKey []byte
	if len(desc.Pubkey) > 0 {
		var (
			derived []byte
			err     error
		)
		if len(desc.Pubkey) == cryptoutils.BLSPublicKeySize {
			derived, err = cryptoutils.BLSPublicKey(secret)
		} else {
			derived, err = cryptoutils.Secp256k1PublicKey(secret, len(desc.Pubkey))
		}
		if err != nil {
			return nil, malformed("pubkey", "cannot derive public key from recovered key", err)
		}
		if !bytes.Equal(derived, desc.Pubkey) {
			return nil, malformed("pubkey", "recovered key does not match declared public key", nil)
		}
		publicKey = derived
	} else if derived, err := cryptoutils.Secp256k1PublicKey(secret, 64); err == nil {
		publicKey = derived
	}

	if desc.Address != nil {
		address, err := cryptoutils.Secp256k1Address(secret)
		if err != nil {
			return nil, malformed("address", "cannot derive address from recovered key", err)
		}
		if address != *desc.Address {
			return nil, malformed("address", "recovered key does not match declared address", nil)
		}
	}
	return publicKey, nil
}
