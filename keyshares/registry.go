package keyshares

import (
	"errors"
	"fmt"
	"sort"
)

// Version2 is the only envelope version known to DefaultRegistry.
const Version2 = "v2"

// Data is the key material unit of an envelope. Clone of a nil unit
// returns nil.
type Data interface {
	Version() string
	Validate() error
	Clone() Data
}

// Payload is the submission-ready unit of an envelope. Clone of a nil unit
// returns nil.
type Payload interface {
	Version() string
	Validate() error
	Clone() Payload
}

// VersionHandler constructs empty units for one envelope version. The
// returned values must be pointers that raw JSON can be decoded into.
type VersionHandler struct {
	NewData    func() Data
	NewPayload func() Payload
}

// Registry maps envelope versions to their handlers. A Registry is not safe
// for concurrent Register calls; populate it before sharing it.
type Registry struct {
	handlers map[string]VersionHandler
}

// NewRegistry returns a registry without any versions.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]VersionHandler)}
}

// DefaultRegistry returns a new registry that knows the v2 envelope.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.handlers[Version2] = VersionHandler{
		NewData:    func() Data { return &DataV2{} },
		NewPayload: func() Payload { return &PayloadV2{} },
	}
	return r
}

// Register adds a handler for version, replacing any existing one.
func (r *Registry) Register(version string, handler VersionHandler) error {
	if version == "" {
		return errors.New("version must not be empty")
	}
	if handler.NewData == nil || handler.NewPayload == nil {
		return fmt.Errorf("handler for %s must construct both data and payload", version)
	}
	r.handlers[version] = handler
	return nil
}

// Lookup returns the handler for version.
func (r *Registry) Lookup(version string) (VersionHandler, error) {
	h, ok := r.handlers[version]
	if !ok {
		return VersionHandler{}, &UnsupportedVersionError{Version: version}
	}
	return h, nil
}

// Versions lists the registered versions in sorted order.
func (r *Registry) Versions() []string {
	versions := make([]string, 0, len(r.handlers))
	for v := range r.handlers {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
