// Package storage provides a content-addressed storage system with pluggable
// backends for KeyShares envelopes and keystore files.
//
// Content is identified by the SHA-256 hash of its bytes and kept under a
// per-type namespace ("keyshares" or "keystores"):
//
//   - File system storage for local use and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage for decentralized content
//   - Vault KV v2 storage with token authentication
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/keyshares/
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/?timeout=30s
//   - vault://[TOKEN@]vault.example.com:8200/secret/keyshares?tls=false
//
// Vault falls back to the VAULT_TOKEN environment variable when the URI
// carries no token.
//
// # Redundancy
//
// MultiStorageBackend stores to every available backend and fetches from the
// first one that has the content. StorageBackendFactory.CreateMultiBackend
// builds one from a list of locations, skipping locations it cannot create a
// backend for. Attach Metrics with WithMetrics to count operations per
// backend.
package storage
