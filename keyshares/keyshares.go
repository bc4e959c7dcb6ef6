package keyshares

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreatedAtLayout is the timestamp format of the createdAt field.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// KeyShares is a versioned envelope holding validated key material (data)
// and submission-ready material (payload). Instances are only obtained
// through construction functions, which validate both units, and units are
// only ever replaced whole through SetData and SetPayload.
type KeyShares struct {
	version string
	data    Data
	payload Payload
}

type serializedEnvelope struct {
	Version   string  `json:"version"`
	Data      Data    `json:"data"`
	Payload   Payload `json:"payload"`
	CreatedAt string  `json:"createdAt"`
}

// FromData builds a KeyShares from its JSON form using DefaultRegistry.
func FromData(raw []byte) (*KeyShares, error) {
	return DefaultRegistry().FromData(raw)
}

// FromObject builds a KeyShares from an already parsed JSON object using
// DefaultRegistry.
func FromObject(obj map[string]any) (*KeyShares, error) {
	return DefaultRegistry().FromObject(obj)
}

// FromObject builds a KeyShares from an already parsed JSON object.
func (r *Registry) FromObject(obj map[string]any) (*KeyShares, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keyshares object: %w", err)
	}
	return r.FromData(raw)
}

// FromData parses raw, selects the unit schemas for its version and
// validates both units. An unknown version fails with
// *UnsupportedVersionError; every failed check of either unit is reported in
// a single *ValidationAggregateError.
func (r *Registry) FromData(raw []byte) (*KeyShares, error) {
	// Keys are matched exactly, unlike struct decoding.
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse keyshares: %w", err)
	}

	version, err := parseVersion(env["version"])
	if err != nil {
		return nil, err
	}
	handler, err := r.Lookup(version)
	if err != nil {
		return nil, err
	}

	data := handler.NewData()
	payload := handler.NewPayload()

	var f failures
	f.merge("data", decodeUnit(env["data"], data))
	f.merge("payload", decodeUnit(env["payload"], payload))
	if err := f.err(); err != nil {
		return nil, err
	}

	return &KeyShares{version: version, data: data, payload: payload}, nil
}

// New builds a KeyShares from units constructed in code. The envelope takes
// copies of data and payload.
func (r *Registry) New(data Data, payload Payload) (*KeyShares, error) {
	candidateData := cloneData(data)
	if candidateData == nil {
		return nil, fieldFailure("data", "is required")
	}
	if _, err := r.Lookup(candidateData.Version()); err != nil {
		return nil, err
	}

	ks := &KeyShares{version: candidateData.Version()}
	var f failures
	f.merge("data", ks.accept(candidateData))
	candidatePayload := clonePayload(payload)
	if candidatePayload == nil {
		f.add("payload", "is required")
	} else {
		f.merge("payload", ks.accept(candidatePayload))
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	ks.data = candidateData
	ks.payload = candidatePayload
	return ks, nil
}

// Version returns the envelope version.
func (k *KeyShares) Version() string {
	return k.version
}

// Data returns a copy of the data unit.
func (k *KeyShares) Data() Data {
	return k.data.Clone()
}

// Payload returns a copy of the payload unit.
func (k *KeyShares) Payload() Payload {
	return k.payload.Clone()
}

// SetData validates data and, only if it passes, replaces the data unit.
// On failure the previous unit is kept.
func (k *KeyShares) SetData(data Data) error {
	candidate := cloneData(data)
	if candidate == nil {
		return fieldFailure("data", "is required")
	}
	var f failures
	f.merge("data", k.accept(candidate))
	if err := f.err(); err != nil {
		return err
	}
	k.data = candidate
	return nil
}

// SetPayload validates payload and, only if it passes, replaces the payload
// unit. On failure the previous unit is kept.
func (k *KeyShares) SetPayload(payload Payload) error {
	candidate := clonePayload(payload)
	if candidate == nil {
		return fieldFailure("payload", "is required")
	}
	var f failures
	f.merge("payload", k.accept(candidate))
	if err := f.err(); err != nil {
		return err
	}
	k.payload = candidate
	return nil
}

// cloneData copies data, returning nil for a nil interface or a nil unit.
func cloneData(data Data) Data {
	if data == nil {
		return nil
	}
	return data.Clone()
}

func clonePayload(payload Payload) Payload {
	if payload == nil {
		return nil
	}
	return payload.Clone()
}

func (k *KeyShares) accept(unit interface {
	Version() string
	Validate() error
}) error {
	if unit.Version() != k.version {
		return fieldFailure("", fmt.Sprintf("version %s does not match envelope version %s", unit.Version(), k.version))
	}
	return unit.Validate()
}

// Serialize returns the indented JSON form stamped with the current time.
func (k *KeyShares) Serialize() ([]byte, error) {
	return json.MarshalIndent(k.serialized(time.Now()), "", "  ")
}

// MarshalJSON returns the compact JSON form stamped with the current time.
func (k *KeyShares) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.serialized(time.Now()))
}

// String returns the same text as Serialize, or an empty string if the
// units cannot be encoded.
func (k *KeyShares) String() string {
	out, err := k.Serialize()
	if err != nil {
		return ""
	}
	return string(out)
}

func (k *KeyShares) serialized(at time.Time) serializedEnvelope {
	return serializedEnvelope{
		Version:   k.version,
		Data:      k.data,
		Payload:   k.payload,
		CreatedAt: at.UTC().Format(CreatedAtLayout),
	}
}

func parseVersion(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", fieldFailure("version", "is required")
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", fieldFailure("version", "must be a string")
	}
	if version == "" {
		return "", fieldFailure("version", "must not be empty")
	}
	return version, nil
}

// decodeUnit fills unit from raw and validates it. A missing unit decodes as
// an empty object and is left for validation to reject. A type mismatch is
// reported together with the checks of every field that did decode.
func decodeUnit(raw json.RawMessage, unit interface{ Validate() error }) error {
	var f failures
	if !isAbsent(raw) {
		if raw = bytes.TrimSpace(raw); raw[0] != '{' {
			return fieldFailure("", "must be an object")
		}

		err := json.Unmarshal(raw, unit)
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
		case errors.As(err, &typeErr):
			// Unmarshal skips the mismatched value and decodes the rest.
			f.add(typeErr.Field, fmt.Sprintf("must be %s, got %s", typeErr.Type, typeErr.Value))
		default:
			return fieldFailure("", err.Error())
		}
	}

	f.merge("", unit.Validate())
	return f.err()
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func fieldFailure(field, reason string) error {
	var f failures
	f.add(field, reason)
	return f.err()
}
