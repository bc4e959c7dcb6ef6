package keystore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// CryptoModule is one {function, params, message} entry of an EIP-2335
// crypto section.
type CryptoModule struct {
	Function string          `json:"function"`
	Params   json.RawMessage `json:"params"`
	Message  string          `json:"message"`
}

// V4Crypto groups the kdf, checksum and cipher modules of a v4 keystore.
type V4Crypto struct {
	KDF      CryptoModule `json:"kdf"`
	Checksum CryptoModule `json:"checksum"`
	Cipher   CryptoModule `json:"cipher"`
}

// KeystoreV4 is the EIP-2335 validator keystore layout.
type KeystoreV4 struct {
	Crypto      V4Crypto `json:"crypto"`
	Description string   `json:"description"`
	Pubkey      string   `json:"pubkey"`
	Path        string   `json:"path"`
	UUID        string   `json:"uuid"`
}

// V3Crypto is the crypto section of a Web3 Secret Storage v3 keystore.
type V3Crypto struct {
	Cipher       string          `json:"cipher"`
	CipherText   string          `json:"ciphertext"`
	CipherParams V3CipherParams  `json:"cipherparams"`
	KDF          string          `json:"kdf"`
	KDFParams    json.RawMessage `json:"kdfparams"`
	MAC          string          `json:"mac"`
}

type V3CipherParams struct {
	IV string `json:"iv"`
}

// KeystoreV3 is the Web3 Secret Storage v3 layout.
type KeystoreV3 struct {
	Address string   `json:"address"`
	Crypto  V3Crypto `json:"crypto"`
	ID      string   `json:"id"`
}

// V1KDFParams uses the capitalised names of the original v1 format.
type V1KDFParams struct {
	N       int `json:"N"`
	R       int `json:"R"`
	P       int `json:"P"`
	DkLen   int `json:"DkLen"`
	SaltLen int `json:"SaltLen"`
}

type V1KeyHeader struct {
	Kdf       string      `json:"Kdf"`
	KdfParams V1KDFParams `json:"KdfParams"`
	Version   string      `json:"Version"`
}

type V1Crypto struct {
	CipherText string      `json:"CipherText"`
	IV         string      `json:"IV"`
	KeyHeader  V1KeyHeader `json:"KeyHeader"`
	MAC        string      `json:"MAC"`
	Salt       string      `json:"Salt"`
}

// KeystoreV1 is the pre-v3 go-ethereum layout.
type KeystoreV1 struct {
	Address string   `json:"Address"`
	Crypto  V1Crypto `json:"Crypto"`
	ID      string   `json:"Id"`
}

// Keystore is a parsed keystore of any supported version. Exactly one of V1,
// V3 and V4 is set, matching Version.
type Keystore struct {
	Version int
	V1      *KeystoreV1
	V3      *KeystoreV3
	V4      *KeystoreV4
}

// ParseKeystore parses keystore JSON, selecting the layout from its version field.
func ParseKeystore(data []byte) (*Keystore, error) {
	ks := &Keystore{}
	if err := json.Unmarshal(data, ks); err != nil {
		return nil, err
	}
	return ks, nil
}

// UnmarshalJSON reads the version field (v1 files spell it "Version" and
// store it as a string) and decodes the matching layout.
func (k *Keystore) UnmarshalJSON(data []byte) error {
	var probe struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return malformed("", "invalid JSON", err)
	}

	version, err := parseVersion(probe.Version)
	if err != nil {
		return err
	}

	*k = Keystore{Version: version}
	var target any
	switch version {
	case 1:
		k.V1 = &KeystoreV1{}
		target = k.V1
	case 3:
		k.V3 = &KeystoreV3{}
		target = k.V3
	case 4:
		k.V4 = &KeystoreV4{}
		target = k.V4
	}

	if err := json.Unmarshal(data, target); err != nil {
		return malformed("", "layout does not match version "+strconv.Itoa(version), err)
	}
	return nil
}

func parseVersion(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, &UnsupportedVersionError{}
	}

	text := strings.Trim(string(raw), `"`)
	version, err := strconv.Atoi(text)
	if err != nil {
		return 0, &UnsupportedVersionError{Version: text}
	}
	switch version {
	case 1, 3, 4:
		return version, nil
	default:
		return 0, &UnsupportedVersionError{Version: text}
	}
}
