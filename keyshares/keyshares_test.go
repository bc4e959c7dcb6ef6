package keyshares

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromData(t *testing.T) {
	ks := testEnvelope(t)

	assert.Equal(t, Version2, ks.Version())
	assert.Equal(t, testData(t, 4), ks.Data())
	assert.Equal(t, testPayload(t, 4), ks.Payload())

	threshold, err := ks.Payload().(*PayloadV2).Threshold()
	require.NoError(t, err)
	assert.Equal(t, 3, threshold)

	amount, err := ks.Payload().(*PayloadV2).Amount()
	require.NoError(t, err)
	assert.Equal(t, "12000000000000000000", amount.Dec())
}

func TestFromDataIdempotent(t *testing.T) {
	first := testEnvelope(t)

	second, err := FromData([]byte(first.String()))
	require.NoError(t, err)
	assert.Equal(t, first.Version(), second.Version())
	assert.Equal(t, first.Data(), second.Data())
	assert.Equal(t, first.Payload(), second.Payload())

	raw, err := json.Marshal(first)
	require.NoError(t, err)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(raw, &obj))
	third, err := FromObject(obj)
	require.NoError(t, err)
	assert.Equal(t, first.Data(), third.Data())
	assert.Equal(t, first.Payload(), third.Payload())
}

func TestFromDataUnsupportedVersion(t *testing.T) {
	for _, version := range []string{"v99", "v1", "V2"} {
		t.Run(version, func(t *testing.T) {
			obj := envelopeObject(t)
			obj["version"] = version

			ks, err := FromObject(obj)
			require.Nil(t, ks)
			var verr *UnsupportedVersionError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, version, verr.Version)
		})
	}
}

func TestFromDataEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing version", raw: `{"data": {}, "payload": {}}`},
		{name: "null version", raw: `{"version": null}`},
		{name: "numeric version", raw: `{"version": 2}`},
		{name: "empty version", raw: `{"version": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, err := FromData([]byte(tt.raw))
			require.Nil(t, ks)
			requireFailedFields(t, err, "version")
		})
	}

	_, err := FromData([]byte(`{"version": "v2"`))
	require.Error(t, err)
	var verr *ValidationAggregateError
	assert.False(t, errors.As(err, &verr))
}

func TestFromDataValidation(t *testing.T) {
	notOnCurve := "0x" + strings.Repeat("00", 48)

	tests := []struct {
		name   string
		tamper func(obj map[string]any)
		fields []string
		absent []string
	}{
		{
			name: "failures in both units are reported together",
			tamper: func(obj map[string]any) {
				obj["data"].(map[string]any)["publicKey"] = "not hex"
				delete(obj["payload"].(map[string]any)["readable"].(map[string]any), "amount")
			},
			fields: []string{"data.publicKey", "payload.readable.amount"},
		},
		{
			name: "missing units",
			tamper: func(obj map[string]any) {
				delete(obj, "data")
				delete(obj, "payload")
			},
			fields: []string{"data.publicKey", "data.operators", "data.shares", "payload.readable"},
		},
		{
			name: "unit is not an object",
			tamper: func(obj map[string]any) {
				obj["data"] = []any{}
			},
			fields: []string{"data"},
		},
		{
			name: "wrong field type",
			tamper: func(obj map[string]any) {
				obj["payload"].(map[string]any)["readable"].(map[string]any)["amount"] = 12
			},
			fields: []string{"payload.readable.amount"},
		},
		{
			name: "cluster too small",
			tamper: func(obj map[string]any) {
				data := obj["data"].(map[string]any)
				data["operators"] = data["operators"].([]any)[:3]
			},
			fields: []string{"data.operators", "data.shares.publicKeys", "data.shares.encryptedKeys"},
		},
		{
			name: "duplicate operator ids",
			tamper: func(obj map[string]any) {
				ops := obj["data"].(map[string]any)["operators"].([]any)
				ops[3].(map[string]any)["id"] = 1
			},
			fields: []string{"data.operators"},
		},
		{
			name: "invalid operator entry",
			tamper: func(obj map[string]any) {
				ops := obj["data"].(map[string]any)["operators"].([]any)
				ops[1].(map[string]any)["id"] = 0
				ops[2].(map[string]any)["operatorKey"] = "***"
			},
			fields: []string{"data.operators[1].id", "data.operators[2].operatorKey"},
		},
		{
			name: "public key not on curve",
			tamper: func(obj map[string]any) {
				obj["data"].(map[string]any)["publicKey"] = notOnCurve
				obj["data"].(map[string]any)["shares"].(map[string]any)["publicKeys"].([]any)[2] = notOnCurve
			},
			fields: []string{"data.publicKey", "data.shares.publicKeys[2]"},
		},
		{
			name: "semantic checks wait for structural checks",
			tamper: func(obj map[string]any) {
				data := obj["data"].(map[string]any)
				data["publicKey"] = "0x1234"
				data["operators"] = data["operators"].([]any)[:3]
			},
			fields: []string{"data.publicKey"},
			absent: []string{"data.operators"},
		},
		{
			name: "unsorted payload operator ids",
			tamper: func(obj map[string]any) {
				readable := obj["payload"].(map[string]any)["readable"].(map[string]any)
				readable["operatorIds"] = []any{2, 1, 3, 4}
			},
			fields: []string{"payload.readable.operatorIds"},
		},
		{
			name: "payload share count mismatch",
			tamper: func(obj map[string]any) {
				readable := obj["payload"].(map[string]any)["readable"].(map[string]any)
				readable["sharePrivateKeys"] = readable["sharePrivateKeys"].([]any)[:2]
			},
			fields: []string{"payload.readable.sharePrivateKeys"},
		},
		{
			name: "payload amount not decimal",
			tamper: func(obj map[string]any) {
				obj["payload"].(map[string]any)["readable"].(map[string]any)["amount"] = "0x10"
			},
			fields: []string{"payload.readable.amount"},
		},
		{
			name: "payload raw not hex",
			tamper: func(obj map[string]any) {
				obj["payload"].(map[string]any)["raw"] = "deadbeef"
			},
			fields: []string{"payload.raw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := envelopeObject(t)
			tt.tamper(obj)

			ks, err := FromObject(obj)
			require.Nil(t, ks)
			verr := requireFailedFields(t, err, tt.fields...)
			for _, field := range tt.absent {
				assert.False(t, verr.HasField(field), "unexpected failure of %s", field)
			}
			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestFromDataTypeError(t *testing.T) {
	obj := envelopeObject(t)
	data := obj["data"].(map[string]any)
	data["operators"].([]any)[0].(map[string]any)["id"] = "one"
	data["publicKey"] = "not hex"
	delete(obj["payload"].(map[string]any)["readable"].(map[string]any), "amount")

	_, err := FromObject(obj)
	verr := requireFailedFields(t, err, "data.operators[0].id", "data.publicKey", "payload.readable.amount")
	require.Len(t, verr.Failures(), 4)

	var mismatch []string
	for _, field := range verr.Fields() {
		if strings.HasPrefix(field, "data.operators") && field != "data.operators[0].id" {
			mismatch = append(mismatch, field)
		}
	}
	assert.Len(t, mismatch, 1, "type mismatch must be reported alongside the other checks")
}

func TestFromDataKeysAreCaseSensitive(t *testing.T) {
	tests := []struct {
		name   string
		rename map[string]string
		fields []string
	}{
		{name: "version", rename: map[string]string{"version": "Version"}, fields: []string{"version"}},
		{name: "data", rename: map[string]string{"data": "DATA"}, fields: []string{"data.publicKey", "data.operators", "data.shares"}},
		{name: "payload", rename: map[string]string{"payload": "Payload"}, fields: []string{"payload.readable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := envelopeObject(t)
			for from, to := range tt.rename {
				obj[to] = obj[from]
				delete(obj, from)
			}

			ks, err := FromObject(obj)
			require.Nil(t, ks)
			requireFailedFields(t, err, tt.fields...)
		})
	}
}

func TestSetPayload(t *testing.T) {
	t.Run("missing field keeps previous payload", func(t *testing.T) {
		ks := testEnvelope(t)
		before := ks.Payload()

		broken := ks.Payload().(*PayloadV2)
		broken.Readable.Amount = ""
		err := ks.SetPayload(broken)
		requireFailedFields(t, err, "payload.readable.amount")
		assert.Equal(t, before, ks.Payload())
	})

	t.Run("valid payload replaces previous", func(t *testing.T) {
		ks := testEnvelope(t)
		next := testPayload(t, 7)
		require.NoError(t, ks.SetPayload(next))
		assert.Equal(t, next, ks.Payload())

		threshold, err := ks.Payload().(*PayloadV2).Threshold()
		require.NoError(t, err)
		assert.Equal(t, 5, threshold)
	})

	t.Run("nil payload", func(t *testing.T) {
		ks := testEnvelope(t)
		before := ks.Payload()
		requireFailedFields(t, ks.SetPayload(nil), "payload")
		requireFailedFields(t, ks.SetPayload((*PayloadV2)(nil)), "payload")
		assert.Equal(t, before, ks.Payload())
	})
}

func TestSetData(t *testing.T) {
	ks := testEnvelope(t)
	before := ks.Data()

	broken := testData(t, 4)
	broken.Shares = nil
	requireFailedFields(t, ks.SetData(broken), "data.shares")
	assert.Equal(t, before, ks.Data())

	requireFailedFields(t, ks.SetData(&noteData{Note: "hello"}), "data")
	assert.Equal(t, before, ks.Data())

	requireFailedFields(t, ks.SetData(nil), "data")
	requireFailedFields(t, ks.SetData((*DataV2)(nil)), "data")
	assert.Equal(t, before, ks.Data())

	next := testData(t, 7)
	require.NoError(t, ks.SetData(next))
	assert.Equal(t, next, ks.Data())

	// The payload was validated with the envelope and is left alone.
	assert.Equal(t, testPayload(t, 4), ks.Payload())
}

func TestUnitsAreNotShared(t *testing.T) {
	data := testData(t, 4)
	ks, err := DefaultRegistry().New(data, testPayload(t, 4))
	require.NoError(t, err)

	data.Operators[0].ID = 99
	data.Shares.PublicKeys[0] = "changed"
	assert.Equal(t, testData(t, 4), ks.Data())

	out := ks.Data().(*DataV2)
	out.Operators = nil
	assert.Equal(t, testData(t, 4), ks.Data())

	other, err := FromData([]byte(ks.String()))
	require.NoError(t, err)
	require.NoError(t, other.SetData(testData(t, 7)))
	assert.Equal(t, testData(t, 4), ks.Data())
}

func TestNew(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.New(testData(t, 4), nil)
	requireFailedFields(t, err, "payload")

	_, err = registry.New(nil, testPayload(t, 4))
	requireFailedFields(t, err, "data")

	_, err = registry.New((*DataV2)(nil), testPayload(t, 4))
	requireFailedFields(t, err, "data")

	_, err = registry.New(testData(t, 4), (*PayloadV2)(nil))
	requireFailedFields(t, err, "payload")

	_, err = registry.New(testData(t, 4), testPayload(t, 4))
	require.NoError(t, err)

	_, err = registry.New(&noteData{Note: "x"}, &notePayload{})
	var verr *UnsupportedVersionError
	require.ErrorAs(t, err, &verr)
}

func TestString(t *testing.T) {
	ks := testEnvelope(t)

	before := time.Now().UTC().Truncate(time.Millisecond)
	out := ks.String()
	after := time.Now().UTC()

	assert.True(t, strings.HasPrefix(out, "{\n  \"version\": \"v2\",\n  \"data\": {"), out)

	var parsed struct {
		Version   string          `json:"version"`
		Data      json.RawMessage `json:"data"`
		Payload   json.RawMessage `json:"payload"`
		CreatedAt string          `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, Version2, parsed.Version)
	assert.NotEmpty(t, parsed.Data)
	assert.NotEmpty(t, parsed.Payload)

	createdAt, err := time.Parse(CreatedAtLayout, parsed.CreatedAt)
	require.NoError(t, err)
	assert.False(t, createdAt.Before(before), "%s before %s", createdAt, before)
	assert.False(t, createdAt.After(after), "%s after %s", createdAt, after)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, parsed.CreatedAt)
}
