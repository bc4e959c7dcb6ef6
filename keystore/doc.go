// Package keystore recovers private keys from password-protected keystore
// files.
//
// Three generations of the format are supported:
//
//   - version 1: the original go-ethereum layout (scrypt, keccak256 MAC,
//     AES-128-CBC keyed with keccak256 of the derived key)
//   - version 3: Web3 Secret Storage (scrypt or pbkdf2, keccak256 MAC,
//     AES-128-CTR)
//   - version 4: EIP-2335 validator keystores (scrypt or pbkdf2, sha256
//     checksum, AES-128-CTR, declared BLS12-381 public key)
//
// Every layout is normalized into a Descriptor before any cryptography runs,
// so the KDF, checksum and cipher engines never see version specific shapes.
//
// # Decoding pipeline
//
//  1. DeriveKey turns the password into a derived key using the stored KDF
//     parameters. The password is used byte for byte.
//  2. VerifyChecksum digests derivedKey[16:32] || ciphertext and compares it
//     with the stored checksum in constant time. A mismatch stops the
//     pipeline with ErrInvalidPassword before anything is decrypted.
//  3. Transform decrypts the ciphertext with derivedKey[0:16] and the stored IV.
//  4. The public key of the recovered secret is derived and compared with the
//     declared pubkey (and address, for v1/v3 files).
//
// # Usage Example
//
//	ks, err := keystore.ParseKeystore(data)
//	if err != nil {
//	    return err
//	}
//	key, err := keystore.DecodeContext(ctx, ks, password)
//	if keystore.IsInvalidPassword(err) {
//	    // ask again
//	}
//
// Key derivation is deliberately slow. DecodeContext and FromV4Context return
// as soon as the context is done; the derivation holds no shared state, so an
// abandoned one is harmless.
package keystore
