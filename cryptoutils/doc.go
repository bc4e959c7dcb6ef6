// Package cryptoutils holds the key primitives shared by the keystore and
// keyshares packages.
//
// # Validator keys
//
// BLSPublicKey derives the compressed BLS12-381 G1 public key of a validator
// secret, as declared in EIP-2335 keystores. ValidateBLSPublicKey checks that
// a declared key is a usable point.
//
// # Account keys
//
// Secp256k1PublicKey and Secp256k1Address derive the public key and address
// of legacy Ethereum keystores.
//
// # Operator keys
//
// OperatorKey wraps the base64 PEM form in which operators publish the RSA
// keys shares are encrypted to. CheckOperatorKey is the pass/fail form used
// by command line pre-flight checks.
package cryptoutils
