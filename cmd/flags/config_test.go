package flags

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfig(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		expected  *Config
		expectErr bool
	}{
		{
			name: "full config",
			content: `
storage:
  - file:///var/lib/keyshares
  - s3://bucket/shares?region=eu-west-1
timeout: 90s
metricsTextfile: /var/lib/node_exporter/keyshares.prom
log:
  json: true
  service: signer
`,
			expected: &Config{
				Storage:         []string{"file:///var/lib/keyshares", "s3://bucket/shares?region=eu-west-1"},
				Timeout:         90 * time.Second,
				MetricsTextfile: "/var/lib/node_exporter/keyshares.prom",
				Log:             LogConfig{JSON: true, Service: "signer"},
			},
		},
		{
			name:     "empty file",
			content:  "",
			expected: &Config{},
		},
		{
			name:      "unknown key",
			content:   "storge: [file:///tmp]\n",
			expectErr: true,
		},
		{
			name:      "invalid duration",
			content:   "timeout: soon\n",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ReadConfig(writeConfig(t, tt.content))
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}

	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// runApp runs a single command with the shared flags and returns what the
// action observed.
func runApp(t *testing.T, args []string) (locations []string, timeout time.Duration, metrics string, err error) {
	t.Helper()

	timeoutFlag := &cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute}
	app := &cli.App{
		Name:   "test",
		Flags:  CommonFlags,
		Before: LoadConfig,
		Commands: []*cli.Command{{
			Name:  "run",
			Flags: []cli.Flag{StorageFlag, MetricsTextfileFlag, timeoutFlag},
			Action: func(cCtx *cli.Context) error {
				parsed, err := StorageLocations(cCtx)
				if err != nil {
					return err
				}
				for _, l := range parsed {
					locations = append(locations, l.String())
				}
				timeout = Duration(cCtx, timeoutFlag, ConfigFrom(cCtx).Timeout)
				metrics = MetricsTextfile(cCtx)
				return nil
			},
		}},
	}
	err = app.Run(append([]string{"test"}, args...))
	return
}

func TestConfigFallbacks(t *testing.T) {
	for _, env := range []string{"KEYSHARES_STORAGE", "KEYSHARES_CONFIG"} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}

	config := writeConfig(t, `
storage: [file:///from/config]
timeout: 1m
metricsTextfile: /tmp/config.prom
`)

	t.Run("config only", func(t *testing.T) {
		locations, timeout, metrics, err := runApp(t, []string{"--config", config, "run"})
		require.NoError(t, err)
		assert.Equal(t, []string{"file:///from/config"}, locations)
		assert.Equal(t, time.Minute, timeout)
		assert.Equal(t, "/tmp/config.prom", metrics)
	})

	t.Run("flags win", func(t *testing.T) {
		locations, timeout, metrics, err := runApp(t, []string{
			"--config", config, "run",
			"--storage", "file:///from/flag",
			"--timeout", "10s",
			"--metrics-textfile", "/tmp/flag.prom",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"file:///from/flag"}, locations)
		assert.Equal(t, 10*time.Second, timeout)
		assert.Equal(t, "/tmp/flag.prom", metrics)
	})

	t.Run("no config", func(t *testing.T) {
		_, _, _, err := runApp(t, []string{"run"})
		require.Error(t, err)
	})

	t.Run("defaults without config", func(t *testing.T) {
		_, timeout, metrics, err := runApp(t, []string{"run", "--storage", "file:///x"})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, timeout)
		assert.Empty(t, metrics)
	})
}
