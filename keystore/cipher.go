package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// CipherFunction names a supported symmetric cipher.
type CipherFunction string

const (
	CipherAES128CTR CipherFunction = "aes-128-ctr"
	// CipherAES128CBC is only found in v1 keystores.
	CipherAES128CBC CipherFunction = "aes-128-cbc"
)

// Direction selects encryption or decryption. CTR mode ignores it.
type Direction int

const (
	Decrypt Direction = iota
	Encrypt
)

const aes128KeySize = 16

// Transform runs the cipher over data with a 16-byte key and a 16-byte IV.
func Transform(fn CipherFunction, key, iv, data []byte, dir Direction) ([]byte, error) {
	if len(key) != aes128KeySize {
		return nil, &CipherParameterError{Param: "key", Reason: fmt.Sprintf("must be %d bytes, got %d", aes128KeySize, len(key))}
	}
	if len(iv) != aes.BlockSize {
		return nil, &CipherParameterError{Param: "iv", Reason: fmt.Sprintf("must be %d bytes, got %d", aes.BlockSize, len(iv))}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CipherParameterError{Param: "key", Reason: err.Error()}
	}

	switch fn {
	case CipherAES128CTR:
		out := make([]byte, len(data))
		cipher.NewCTR(block, iv).XORKeyStream(out, data)
		return out, nil
	case CipherAES128CBC:
		if dir == Encrypt {
			padded := pkcs7Pad(data)
			out := make([]byte, len(padded))
			cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
			return out, nil
		}
		if len(data) == 0 || len(data)%aes.BlockSize != 0 {
			return nil, &CipherParameterError{Param: "ciphertext", Reason: "not a whole number of blocks"}
		}
		out := make([]byte, len(data))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
		return pkcs7Unpad(out)
	default:
		return nil, &CipherParameterError{Param: "function", Reason: fmt.Sprintf("unsupported cipher %q", fn)}
	}
}

func pkcs7Pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, &CipherParameterError{Param: "ciphertext", Reason: "bad padding"}
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, &CipherParameterError{Param: "ciphertext", Reason: "bad padding"}
		}
	}
	return data[:len(data)-n], nil
}
