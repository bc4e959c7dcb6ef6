package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/validator-keyshares/interfaces"
)

const (
	defaultIPFSPort    = "5001"
	defaultIPFSTimeout = 30 * time.Second
	defaultIPFSRoot    = "/validator-keyshares"
)

// StorageBackendFactory creates storage backends from location URIs and manages
// multi-backend configurations for redundant storage.
type StorageBackendFactory struct {
	log     *slog.Logger
	metrics *Metrics
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBackendFactory{log: logger}
}

// WithMetrics makes multi-backends created by the factory record metrics.
func (sf *StorageBackendFactory) WithMetrics(metrics *Metrics) *StorageBackendFactory {
	sf.metrics = metrics
	return sf
}

// StorageBackendFor creates a storage backend from a location.
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node MFS storage
//   - vault:// - Vault KV v2 storage
func (sf *StorageBackendFactory) StorageBackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	switch {
	case location.IsFile():
		return sf.createFileBackend(location)
	case location.IsS3():
		return sf.createS3Backend(location)
	case location.IsIPFS():
		return sf.createIPFSBackend(location)
	case location.IsVault():
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of locations.
// Locations that fail to produce a backend are logged and skipped.
// Returns an error if no valid backends could be created.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.StorageBackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("location", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}

	return NewMultiStorageBackend(backends, sf.log).WithMetrics(sf.metrics), nil
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.String()))

	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, location)
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com&path_style=true
func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", location.Host))

	cfg := S3Config{
		Bucket:    location.Host,
		Prefix:    strings.TrimPrefix(location.Path, "/"),
		Region:    location.GetParam("region"),
		Endpoint:  location.GetParam("endpoint"),
		AccessKey: location.Username(),
		SecretKey: location.Password(),
		PathStyle: location.GetParamBool("path_style"),
	}
	if cfg.AccessKey != "" {
		sf.log.Debug("Using embedded S3 credentials")
	}

	return NewS3Backend(cfg, sf.log)
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/mfs/root?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", location.String()))

	host, port, found := strings.Cut(location.Host, ":")
	if !found || port == "" {
		port = defaultIPFSPort
	}

	timeout := defaultIPFSTimeout
	if raw := location.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid IPFS timeout %q: %v", interfaces.ErrInvalidLocationURI, raw, err)
		}
		timeout = parsed
	}

	root := location.Path
	if strings.Trim(root, "/") == "" {
		root = defaultIPFSRoot
	}

	return NewIPFSBackend(host, port, root, timeout, sf.log)
}

// createVaultBackend creates a Vault KV v2 storage backend.
// URI format: vault://[TOKEN@]host:port/mount/path?tls=false
// The first path segment is the KV mount, the rest the path within it.
func (sf *StorageBackendFactory) createVaultBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", location.Host))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault host", interfaces.ErrInvalidLocationURI)
	}

	scheme := "https"
	if location.Query.Has("tls") && !location.GetParamBool("tls") {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, location.Host)

	mountPath, dataPath, _ := strings.Cut(strings.Trim(location.Path, "/"), "/")

	return NewVaultBackend(address, mountPath, dataPath, location.Username(), sf.log)
}
