// Package interfaces defines the storage contracts shared by the keyshares
// tooling, separating interface definitions from implementations.
//
// # Storage Interfaces
//
// StorageBackend: Provides content-addressed storage for KeyShares envelopes
// and keystore files across multiple backend types (file, S3, IPFS, Vault).
//
// StorageBackendFactory: Creates storage backends from location URIs and
// manages multi-backend configurations for redundant storage.
//
// # Types
//
//   - ContentID: 32-byte SHA-256 hash for content addressing
//   - ContentType: storage namespace of a piece of content
//   - StorageBackendLocation: parsed backend location URI
package interfaces
