package keystore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// Descriptor is the version-independent view of a keystore consumed by the
// KDF, checksum and cipher engines.
type Descriptor struct {
	Version  int
	KDF      KDFParams
	Checksum ChecksumParams
	Cipher   CipherParams

	// HashedCipherKey is set for v1 files, which key the cipher with
	// keccak256(derivedKey[:16])[:16] instead of derivedKey[:16].
	HashedCipherKey bool

	// Pubkey is the declared public key, empty if the file has none.
	Pubkey []byte
	// Address is the declared account address of v1/v3 files.
	Address *common.Address

	UUID        string
	Path        string
	Description string
}

type ChecksumParams struct {
	Function ChecksumFunction
	Message  string
}

type CipherParams struct {
	Function   CipherFunction
	IV         []byte
	CipherText []byte
}

// kdfParamsJSON covers both scrypt and pbkdf2 parameter objects.
type kdfParamsJSON struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// Normalize maps any supported keystore layout to a Descriptor.
func Normalize(ks *Keystore) (*Descriptor, error) {
	if ks == nil {
		return nil, malformed("", "keystore is nil", nil)
	}

	switch {
	case ks.Version == 4 && ks.V4 != nil:
		return normalizeV4(ks.V4)
	case ks.Version == 3 && ks.V3 != nil:
		return normalizeV3(ks.V3)
	case ks.Version == 1 && ks.V1 != nil:
		return normalizeV1(ks.V1)
	case ks.Version == 1 || ks.Version == 3 || ks.Version == 4:
		return nil, malformed("", fmt.Sprintf("no layout for version %d", ks.Version), nil)
	default:
		return nil, &UnsupportedVersionError{Version: strconv.Itoa(ks.Version)}
	}
}

func normalizeV4(ks *KeystoreV4) (*Descriptor, error) {
	kdf, err := decodeKDFParams("crypto.kdf.params", KDFFunction(ks.Crypto.KDF.Function), ks.Crypto.KDF.Params)
	if err != nil {
		return nil, err
	}

	if ChecksumFunction(ks.Crypto.Checksum.Function) != ChecksumSHA256 {
		return nil, malformed("crypto.checksum.function", fmt.Sprintf("unsupported checksum %q", ks.Crypto.Checksum.Function), nil)
	}
	if _, err := decodeHex("crypto.checksum.message", ks.Crypto.Checksum.Message); err != nil {
		return nil, err
	}

	if CipherFunction(ks.Crypto.Cipher.Function) != CipherAES128CTR {
		return nil, malformed("crypto.cipher.function", fmt.Sprintf("unsupported cipher %q", ks.Crypto.Cipher.Function), nil)
	}
	var cipherParams struct {
		IV string `json:"iv"`
	}
	if err := json.Unmarshal(orEmptyObject(ks.Crypto.Cipher.Params), &cipherParams); err != nil {
		return nil, malformed("crypto.cipher.params", "invalid params", err)
	}
	iv, err := decodeHex("crypto.cipher.params.iv", cipherParams.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := decodeHex("crypto.cipher.message", ks.Crypto.Cipher.Message)
	if err != nil {
		return nil, err
	}

	desc := &Descriptor{
		Version:     4,
		KDF:         kdf,
		Checksum:    ChecksumParams{Function: ChecksumSHA256, Message: ks.Crypto.Checksum.Message},
		Cipher:      CipherParams{Function: CipherAES128CTR, IV: iv, CipherText: cipherText},
		Path:        ks.Path,
		Description: ks.Description,
	}

	if ks.Pubkey != "" {
		if desc.Pubkey, err = decodeHex("pubkey", ks.Pubkey); err != nil {
			return nil, err
		}
	}
	if ks.UUID != "" {
		id, err := uuid.Parse(ks.UUID)
		if err != nil {
			return nil, malformed("uuid", "invalid uuid", err)
		}
		desc.UUID = id.String()
	}
	return desc, nil
}

func normalizeV3(ks *KeystoreV3) (*Descriptor, error) {
	kdf, err := decodeKDFParams("crypto.kdfparams", KDFFunction(ks.Crypto.KDF), ks.Crypto.KDFParams)
	if err != nil {
		return nil, err
	}

	if CipherFunction(ks.Crypto.Cipher) != CipherAES128CTR {
		return nil, malformed("crypto.cipher", fmt.Sprintf("unsupported cipher %q", ks.Crypto.Cipher), nil)
	}
	iv, err := decodeHex("crypto.cipherparams.iv", ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := decodeHex("crypto.ciphertext", ks.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	if _, err := decodeHex("crypto.mac", ks.Crypto.MAC); err != nil {
		return nil, err
	}

	address, err := decodeAddress(ks.Address)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		Version:  3,
		KDF:      kdf,
		Checksum: ChecksumParams{Function: ChecksumKeccak256, Message: ks.Crypto.MAC},
		Cipher:   CipherParams{Function: CipherAES128CTR, IV: iv, CipherText: cipherText},
		Address:  address,
		UUID:     ks.ID,
	}, nil
}

func normalizeV1(ks *KeystoreV1) (*Descriptor, error) {
	if KDFFunction(ks.Crypto.KeyHeader.Kdf) != KDFScrypt {
		return nil, malformed("Crypto.KeyHeader.Kdf", fmt.Sprintf("unsupported kdf %q", ks.Crypto.KeyHeader.Kdf), nil)
	}
	salt, err := decodeHex("Crypto.Salt", ks.Crypto.Salt)
	if err != nil {
		return nil, err
	}
	params := ks.Crypto.KeyHeader.KdfParams
	kdf := KDFParams{
		Function: KDFScrypt,
		DKLen:    params.DkLen,
		Salt:     salt,
		N:        params.N,
		R:        params.R,
		P:        params.P,
	}
	if err := kdf.Validate(); err != nil {
		return nil, err
	}

	iv, err := decodeHex("Crypto.IV", ks.Crypto.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := decodeHex("Crypto.CipherText", ks.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	if _, err := decodeHex("Crypto.MAC", ks.Crypto.MAC); err != nil {
		return nil, err
	}

	address, err := decodeAddress(ks.Address)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		Version:         1,
		KDF:             kdf,
		Checksum:        ChecksumParams{Function: ChecksumKeccak256, Message: ks.Crypto.MAC},
		Cipher:          CipherParams{Function: CipherAES128CBC, IV: iv, CipherText: cipherText},
		HashedCipherKey: true,
		Address:         address,
		UUID:            ks.ID,
	}, nil
}

func decodeKDFParams(field string, fn KDFFunction, raw json.RawMessage) (KDFParams, error) {
	if fn != KDFScrypt && fn != KDFPBKDF2 {
		return KDFParams{}, &KdfParameterError{Param: "function", Reason: fmt.Sprintf("unsupported kdf %q", fn)}
	}

	var p kdfParamsJSON
	if err := json.Unmarshal(orEmptyObject(raw), &p); err != nil {
		return KDFParams{}, malformed(field, "invalid params", err)
	}
	salt, err := decodeHex(field+".salt", p.Salt)
	if err != nil {
		return KDFParams{}, err
	}

	params := KDFParams{
		Function: fn,
		DKLen:    p.DKLen,
		Salt:     salt,
		N:        p.N,
		R:        p.R,
		P:        p.P,
		C:        p.C,
		PRF:      p.PRF,
	}
	if err := params.Validate(); err != nil {
		return KDFParams{}, err
	}
	return params, nil
}

func decodeHex(field, value string) ([]byte, error) {
	if value == "" {
		return nil, malformed(field, "missing", nil)
	}
	b, err := hexutil.Decode("0x" + strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, malformed(field, "invalid hex", err)
	}
	return b, nil
}

func decodeAddress(value string) (*common.Address, error) {
	if value == "" {
		return nil, nil
	}
	if !common.IsHexAddress(value) {
		return nil, malformed("address", "invalid address", nil)
	}
	address := common.HexToAddress(value)
	return &address, nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
