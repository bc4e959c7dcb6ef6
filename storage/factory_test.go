package storage

import (
	"testing"

	"github.com/ruteri/validator-keyshares/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageBackendFor(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAULT_TOKEN", "")

	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{name: "file", uri: "file://" + dir, want: "file://" + dir},
		{name: "s3 with credentials", uri: "s3://AKID:secret@bucket/shares/?region=eu-west-1", want: "s3://AKID:***@bucket/shares?region=eu-west-1"},
		{name: "s3 without bucket", uri: "s3:///prefix", wantErr: true},
		{name: "ipfs default root", uri: "ipfs://localhost:5001/", want: "ipfs://localhost:5001/validator-keyshares?timeout=30s"},
		{name: "ipfs bad timeout", uri: "ipfs://localhost/?timeout=soon", wantErr: true},
		{name: "vault with token", uri: "vault://s.token@vault.local:8200/secret/keyshares?tls=false", want: "vault://vault.local:8200/secret/keyshares"},
		{name: "vault without token", uri: "vault://vault.local:8200/secret/keyshares", wantErr: true},
	}

	factory := NewStorageBackendFactory(discardLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, err := interfaces.NewStorageBackendLocation(tt.uri)
			require.NoError(t, err)

			backend, err := factory.StorageBackendFor(location)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.LocationURI())
		})
	}
}

func TestCreateMultiBackend(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	good, err := interfaces.NewStorageBackendLocation("file://" + t.TempDir())
	require.NoError(t, err)
	bad, err := interfaces.NewStorageBackendLocation("s3:///no-bucket")
	require.NoError(t, err)

	backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{bad, good})
	require.NoError(t, err)
	assert.Equal(t, "multi:[file://"+good.Path+"]", backend.LocationURI())

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{bad})
	require.Error(t, err)
}
