package keystore

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// EIP-2335 reference test vectors.
const (
	eipPassword         = "testpassword\U0001f511"
	eipSecret           = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	eipPubkey           = "9612d7a727c9d0a22e185a1c768478dfe919cada9266988cb32359c11f2b7b27f4ae4040902382ae2910c15e2b420d07"
	eipIV               = "264daa3f303d7259501c93d997d84fe6"
	eipScryptCipherText = "06ae90d55fe0a6e9c5c3bc5b170827b2e5cce3929ed3f116c2811e6366dfe20f"
	eipScryptChecksum   = "d2217fe5f3e9a1e34581ef8a78f7c9928e436d36dacc5e846690a5581e8ea484"
)

const eipScryptKeystore = `{
    "crypto": {
        "kdf": {
            "function": "scrypt",
            "params": {
                "dklen": 32,
                "n": 262144,
                "p": 1,
                "r": 8,
                "salt": "d4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3"
            },
            "message": ""
        },
        "checksum": {
            "function": "sha256",
            "params": {},
            "message": "d2217fe5f3e9a1e34581ef8a78f7c9928e436d36dacc5e846690a5581e8ea484"
        },
        "cipher": {
            "function": "aes-128-ctr",
            "params": {
                "iv": "264daa3f303d7259501c93d997d84fe6"
            },
            "message": "06ae90d55fe0a6e9c5c3bc5b170827b2e5cce3929ed3f116c2811e6366dfe20f"
        }
    },
    "description": "This is a test keystore that uses scrypt to secure the secret.",
    "pubkey": "9612d7a727c9d0a22e185a1c768478dfe919cada9266988cb32359c11f2b7b27f4ae4040902382ae2910c15e2b420d07",
    "path": "m/12381/60/3141592653/589793238",
    "uuid": "1d85ae20-35c5-4611-98e8-aa14a633906f",
    "version": 4
}`

const eipPBKDF2Keystore = `{
    "crypto": {
        "kdf": {
            "function": "pbkdf2",
            "params": {
                "dklen": 32,
                "c": 262144,
                "prf": "hmac-sha256",
                "salt": "d4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3"
            },
            "message": ""
        },
        "checksum": {
            "function": "sha256",
            "params": {},
            "message": "8a9f5d9912ed7e75ea794bc5a89bca5f193721d30868ade6f73043c6ea6febf1"
        },
        "cipher": {
            "function": "aes-128-ctr",
            "params": {
                "iv": "264daa3f303d7259501c93d997d84fe6"
            },
            "message": "cee03fde2af33149775b7223e7845e4fb2c8ae1792e5f99fe9ecf474cc8c16ad"
        }
    },
    "description": "This is a test keystore that uses PBKDF2 to secure the secret.",
    "pubkey": "9612d7a727c9d0a22e185a1c768478dfe919cada9266988cb32359c11f2b7b27f4ae4040902382ae2910c15e2b420d07",
    "path": "m/12381/60/0/0",
    "uuid": "64625def-3331-4eea-ab6f-782f3ed16a83",
    "version": 4
}`

var testIV = bytes.Repeat([]byte{0x42}, 16)

func lightScrypt(salt []byte) KDFParams {
	return KDFParams{Function: KDFScrypt, DKLen: 32, Salt: salt, N: 16, R: 8, P: 1}
}

func lightPBKDF2(salt []byte) KDFParams {
	return KDFParams{Function: KDFPBKDF2, DKLen: 32, Salt: salt, C: 1000, PRF: PRFHmacSHA256}
}

func kdfParamsDoc(kdf KDFParams) map[string]any {
	params := map[string]any{
		"dklen": kdf.DKLen,
		"salt":  hex.EncodeToString(kdf.Salt),
	}
	if kdf.Function == KDFScrypt {
		params["n"], params["r"], params["p"] = kdf.N, kdf.R, kdf.P
	} else {
		params["c"], params["prf"] = kdf.C, kdf.PRF
	}
	return params
}

// v4Doc encrypts secret into an EIP-2335 document. pubkey may be nil.
func v4Doc(t *testing.T, secret []byte, password string, kdf KDFParams, pubkey []byte) map[string]any {
	t.Helper()

	derived, err := DeriveKey([]byte(password), kdf)
	require.NoError(t, err)
	cipherText, err := Transform(CipherAES128CTR, derived[:16], testIV, secret, Encrypt)
	require.NoError(t, err)
	checksum, err := ComputeChecksum(ChecksumSHA256, derived[16:32], cipherText)
	require.NoError(t, err)

	doc := map[string]any{
		"crypto": map[string]any{
			"kdf": map[string]any{
				"function": string(kdf.Function),
				"params":   kdfParamsDoc(kdf),
				"message":  "",
			},
			"checksum": map[string]any{
				"function": "sha256",
				"params":   map[string]any{},
				"message":  hex.EncodeToString(checksum),
			},
			"cipher": map[string]any{
				"function": "aes-128-ctr",
				"params":   map[string]any{"iv": hex.EncodeToString(testIV)},
				"message":  hex.EncodeToString(cipherText),
			},
		},
		"description": "test keystore",
		"path":        "m/12381/3600/0/0/0",
		"uuid":        uuid.NewString(),
		"version":     4,
	}
	if pubkey != nil {
		doc["pubkey"] = hex.EncodeToString(pubkey)
	}
	return doc
}

// v1Doc encrypts secret into the original go-ethereum v1 layout.
func v1Doc(t *testing.T, secret []byte, password string) map[string]any {
	t.Helper()

	salt := []byte("v1-salt-v1-salt-v1-salt-v1-salt!")
	kdf := lightScrypt(salt)
	derived, err := DeriveKey([]byte(password), kdf)
	require.NoError(t, err)
	cipherText, err := Transform(CipherAES128CBC, crypto.Keccak256(derived[:16])[:16], testIV, secret, Encrypt)
	require.NoError(t, err)

	key, err := crypto.ToECDSA(secret)
	require.NoError(t, err)

	return map[string]any{
		"Address": hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes()),
		"Crypto": map[string]any{
			"CipherText": hex.EncodeToString(cipherText),
			"IV":         hex.EncodeToString(testIV),
			"KeyHeader": map[string]any{
				"Kdf": "scrypt",
				"KdfParams": map[string]any{
					"N":       kdf.N,
					"R":       kdf.R,
					"P":       kdf.P,
					"DkLen":   kdf.DKLen,
					"SaltLen": len(salt),
				},
				"Version": "1",
			},
			"MAC":  hex.EncodeToString(crypto.Keccak256(derived[16:32], cipherText)),
			"Salt": hex.EncodeToString(salt),
		},
		"Id":      uuid.NewString(),
		"Version": "1",
	}
}

func parseDoc(t *testing.T, doc map[string]any) *Keystore {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	ks, err := ParseKeystore(data)
	require.NoError(t, err)
	return ks
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
