package keystore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/ruteri/validator-keyshares/cryptoutils"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// KDFFunction names a supported key derivation function.
type KDFFunction string

const (
	KDFScrypt KDFFunction = "scrypt"
	KDFPBKDF2 KDFFunction = "pbkdf2"
)

// PRFHmacSHA256 is the only pseudorandom function accepted for pbkdf2.
const PRFHmacSHA256 = "hmac-sha256"

// MinDerivedKeyLength is the smallest dklen the decoder accepts: the first
// half keys the cipher, the second half feeds the checksum.
const MinDerivedKeyLength = 32

// KDFParams holds the parameters of either KDF. Only the fields relevant to
// Function are consulted.
type KDFParams struct {
	Function KDFFunction
	DKLen    int
	Salt     []byte

	// scrypt
	N int
	R int
	P int

	// pbkdf2
	C   int
	PRF string
}

// Validate checks the parameters against the supported ranges.
func (p KDFParams) Validate() error {
	if p.DKLen < MinDerivedKeyLength {
		return &KdfParameterError{Param: "dklen", Reason: fmt.Sprintf("must be at least %d, got %d", MinDerivedKeyLength, p.DKLen)}
	}

	switch p.Function {
	case KDFScrypt:
		if p.N < 2 || p.N&(p.N-1) != 0 {
			return &KdfParameterError{Param: "n", Reason: fmt.Sprintf("must be a power of two >= 2, got %d", p.N)}
		}
		if p.R <= 0 {
			return &KdfParameterError{Param: "r", Reason: fmt.Sprintf("must be positive, got %d", p.R)}
		}
		if p.P <= 0 {
			return &KdfParameterError{Param: "p", Reason: fmt.Sprintf("must be positive, got %d", p.P)}
		}
		// Limits enforced by scrypt.Key.
		if p.R > math.MaxInt/256 {
			return &KdfParameterError{Param: "r", Reason: fmt.Sprintf("too large, got %d", p.R)}
		}
		if uint64(p.R)*uint64(p.P) >= 1<<30 || p.R > math.MaxInt/128/p.P {
			return &KdfParameterError{Param: "p", Reason: fmt.Sprintf("r*p must be below 2^30, got r=%d p=%d", p.R, p.P)}
		}
		if p.N > math.MaxInt/128/p.R {
			return &KdfParameterError{Param: "n", Reason: fmt.Sprintf("too large for r=%d, got %d", p.R, p.N)}
		}
	case KDFPBKDF2:
		if p.C <= 0 {
			return &KdfParameterError{Param: "c", Reason: fmt.Sprintf("must be positive, got %d", p.C)}
		}
		if p.PRF != PRFHmacSHA256 {
			return &KdfParameterError{Param: "prf", Reason: fmt.Sprintf("unsupported pseudorandom function %q", p.PRF)}
		}
	default:
		return &KdfParameterError{Param: "function", Reason: fmt.Sprintf("unsupported kdf %q", p.Function)}
	}
	return nil
}

// DeriveKey turns a password into a symmetric key. The password bytes are
// used exactly as given.
func DeriveKey(password []byte, params KDFParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	switch params.Function {
	case KDFScrypt:
		key, err := scrypt.Key(password, params.Salt, params.N, params.R, params.P, params.DKLen)
		if err != nil {
			return nil, &KdfParameterError{Param: "n/r/p", Reason: err.Error()}
		}
		return key, nil
	default:
		return pbkdf2.Key(password, params.Salt, params.C, params.DKLen, sha256.New), nil
	}
}

// DeriveKeyContext runs DeriveKey on its own goroutine so the caller can give
// up on it. An abandoned derivation finishes in the background and its output
// is wiped.
func DeriveKeyContext(ctx context.Context, password []byte, params KDFParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		key []byte
		err error
	}

	pw := bytes.Clone(password)
	params.Salt = bytes.Clone(params.Salt)
	done := make(chan result, 1)
	go func() {
		key, err := DeriveKey(pw, params)
		cryptoutils.WipeBytes(pw)
		done <- result{key: key, err: err}
	}()

	select {
	case r := <-done:
		return r.key, r.err
	case <-ctx.Done():
		go func() {
			r := <-done
			cryptoutils.WipeBytes(r.key)
		}()
		return nil, ctx.Err()
	}
}
