package keyshares

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/validator-keyshares/cryptoutils"
	"github.com/stretchr/testify/require"
)

// blsKeyHex returns the public key of the BLS secret with the given value.
func blsKeyHex(t *testing.T, secret uint64) string {
	t.Helper()
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[31-i] = byte(secret >> (8 * i))
	}
	pk, err := cryptoutils.BLSPublicKey(buf[:])
	require.NoError(t, err)
	return hexutil.Encode(pk)
}

func testData(t *testing.T, operators int) *DataV2 {
	t.Helper()
	d := &DataV2{
		PublicKey: blsKeyHex(t, 1000),
		Shares:    &SharesV2{},
	}
	for i := 1; i <= operators; i++ {
		d.Operators = append(d.Operators, OperatorV2{
			ID:          uint64(i),
			OperatorKey: base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("operator key %d", i))),
		})
		d.Shares.PublicKeys = append(d.Shares.PublicKeys, blsKeyHex(t, uint64(i)))
		d.Shares.EncryptedKeys = append(d.Shares.EncryptedKeys, base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("share %d", i))))
	}
	return d
}

func testPayload(t *testing.T, operators int) *PayloadV2 {
	t.Helper()
	r := &ReadablePayloadV2{
		PublicKey: blsKeyHex(t, 1000),
		Amount:    "12000000000000000000",
		Cluster:   "0x01",
	}
	for i := 1; i <= operators; i++ {
		r.OperatorIDs = append(r.OperatorIDs, uint64(i))
		r.SharePublicKeys = append(r.SharePublicKeys, blsKeyHex(t, uint64(i)))
		r.SharePrivateKeys = append(r.SharePrivateKeys, hexutil.Encode([]byte(fmt.Sprintf("encrypted %d", i))))
	}
	return &PayloadV2{Readable: r, Raw: "0xdeadbeef"}
}

func envelopeJSON(t *testing.T, data *DataV2, payload *PayloadV2) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"version": Version2,
		"data":    data,
		"payload": payload,
	})
	require.NoError(t, err)
	return raw
}

// envelopeObject returns a valid four-operator envelope as a generic JSON
// object, ready to be tampered with.
func envelopeObject(t *testing.T) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal(envelopeJSON(t, testData(t, 4), testPayload(t, 4)), &obj))
	return obj
}

func testEnvelope(t *testing.T) *KeyShares {
	t.Helper()
	ks, err := FromData(envelopeJSON(t, testData(t, 4), testPayload(t, 4)))
	require.NoError(t, err)
	return ks
}

func requireFailedFields(t *testing.T, err error, fields ...string) *ValidationAggregateError {
	t.Helper()
	var verr *ValidationAggregateError
	require.ErrorAs(t, err, &verr)
	for _, field := range fields {
		require.True(t, verr.HasField(field), "expected %s among failed fields %v", field, verr.Fields())
	}
	return verr
}
