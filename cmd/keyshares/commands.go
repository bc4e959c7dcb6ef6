package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/validator-keyshares/cmd/flags"
	"github.com/ruteri/validator-keyshares/cryptoutils"
	"github.com/ruteri/validator-keyshares/interfaces"
	"github.com/ruteri/validator-keyshares/keyshares"
	"github.com/ruteri/validator-keyshares/keystore"
	"github.com/ruteri/validator-keyshares/storage"
	"github.com/urfave/cli/v2"
)

type decryptResult struct {
	Version     int    `json:"version"`
	PublicKey   string `json:"publicKey"`
	PrivateKey  string `json:"privateKey,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
}

func decryptAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	path := cCtx.Path(KeystoreFileFlag.Name)
	if path == "" {
		return fmt.Errorf("--%s is required", KeystoreFileFlag.Name)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read keystore: %w", err)
	}

	ks, err := keystore.ParseKeystore(raw)
	if err != nil {
		logger.Error("Failed to parse keystore", "path", path, "err", err)
		return err
	}
	desc, err := keystore.Normalize(ks)
	if err != nil {
		logger.Error("Keystore is malformed", "path", path, "err", err)
		return err
	}

	password, err := readPassword(cCtx)
	if err != nil {
		return err
	}

	timeout := flags.Duration(cCtx, TimeoutFlag, flags.ConfigFrom(cCtx).Timeout)
	logger.Debug("Deriving keystore key",
		"version", desc.Version,
		"kdf", string(desc.KDF.Function),
		"timeout", timeout)

	ctx, cancel := context.WithTimeout(cCtx.Context, timeout)
	defer cancel()

	key, err := keystore.DecodeContext(ctx, ks, password)
	if err != nil {
		if keystore.IsInvalidPassword(err) {
			logger.Warn("Wrong password or corrupted file", "path", path)
		} else {
			logger.Error("Failed to decrypt keystore", "path", path, "err", err)
		}
		return err
	}

	result := decryptResult{
		Version:     desc.Version,
		PublicKey:   key.PublicKeyHex,
		UUID:        desc.UUID,
		Path:        desc.Path,
		Description: desc.Description,
	}
	if cCtx.Bool(ShowPrivateKeyFlag.Name) {
		result.PrivateKey = key.PrivateKeyHex
	}

	logger.Info("Keystore decrypted", "version", desc.Version, "public_key", key.PublicKeyHex)
	return printJSON(result)
}

func validateAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	ks, err := readKeyShares(cCtx)
	if err != nil {
		var verr *keyshares.ValidationAggregateError
		if errors.As(err, &verr) {
			for _, f := range verr.Failures() {
				logger.Error("Check failed", "field", f.Field, "reason", f.Reason)
			}
		}
		return err
	}

	summary := map[string]any{"version": ks.Version(), "valid": true}
	if payload, ok := ks.Payload().(*keyshares.PayloadV2); ok {
		if threshold, err := payload.Threshold(); err == nil {
			summary["operators"] = len(payload.Readable.OperatorIDs)
			summary["threshold"] = threshold
		}
	}
	return printJSON(summary)
}

func checkOperatorAction(cCtx *cli.Context) error {
	ok, message := cryptoutils.CheckOperatorKey(cCtx.String(OperatorKeyFlag.Name))
	if !ok {
		return cli.Exit(message, 1)
	}
	fmt.Println("operator key is valid")
	return nil
}

func storeAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	var (
		data        []byte
		contentType interfaces.ContentType
	)
	switch keySharesPath, keystorePath := cCtx.Path(KeySharesFileFlag.Name), cCtx.Path(KeystoreFileFlag.Name); {
	case keySharesPath != "" && keystorePath != "":
		return fmt.Errorf("use only one of --%s and --%s", KeySharesFileFlag.Name, KeystoreFileFlag.Name)
	case keySharesPath != "":
		ks, err := readKeyShares(cCtx)
		if err != nil {
			return err
		}
		if data, err = ks.Serialize(); err != nil {
			return err
		}
		contentType = interfaces.KeySharesType
	case keystorePath != "":
		raw, err := os.ReadFile(keystorePath)
		if err != nil {
			return fmt.Errorf("failed to read keystore: %w", err)
		}
		ks, err := keystore.ParseKeystore(raw)
		if err != nil {
			return err
		}
		if _, err := keystore.Normalize(ks); err != nil {
			return err
		}
		data, contentType = raw, interfaces.KeystoreType
	default:
		return fmt.Errorf("one of --%s or --%s is required", KeySharesFileFlag.Name, KeystoreFileFlag.Name)
	}

	backend, flush, err := storageBackend(cCtx)
	if err != nil {
		return err
	}
	defer flush()

	id, err := backend.Store(cCtx.Context, data, contentType)
	if err != nil {
		logger.Error("Failed to store content", "type", contentType.String(), "err", err)
		return err
	}

	logger.Info("Stored content", "type", contentType.String(), "content_id", id.String(), "location", backend.LocationURI())
	fmt.Println(id.String())
	return nil
}

func fetchAction(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	id, err := interfaces.NewContentIDFromHex(cCtx.String(ContentIDFlag.Name))
	if err != nil {
		return err
	}

	backend, flush, err := storageBackend(cCtx)
	if err != nil {
		return err
	}
	defer flush()

	var out []byte
	switch contentType := cCtx.String(ContentTypeFlag.Name); contentType {
	case "keyshares":
		ks, err := keyshares.Load(cCtx.Context, backend, id)
		if err != nil {
			logger.Error("Failed to load KeyShares", "content_id", id.String(), "err", err)
			return err
		}
		if out, err = ks.Serialize(); err != nil {
			return err
		}
	case "keystore":
		if out, err = backend.Fetch(cCtx.Context, id, interfaces.KeystoreType); err != nil {
			logger.Error("Failed to fetch keystore", "content_id", id.String(), "err", err)
			return err
		}
	default:
		return fmt.Errorf("unknown content type %q", contentType)
	}

	if target := cCtx.Path(OutputFileFlag.Name); target != "" {
		return os.WriteFile(target, out, 0o600)
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func readKeyShares(cCtx *cli.Context) (*keyshares.KeyShares, error) {
	path := cCtx.Path(KeySharesFileFlag.Name)
	if path == "" {
		return nil, fmt.Errorf("--%s is required", KeySharesFileFlag.Name)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyshares: %w", err)
	}
	return keyshares.FromData(raw)
}

// readPassword returns the password from --password (or its environment
// variable) or --password-file. Only the line break a file ends with is
// removed; the password is otherwise used as is.
func readPassword(cCtx *cli.Context) (string, error) {
	if file := cCtx.Path(PasswordFileFlag.Name); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		password := string(raw)
		if strings.HasSuffix(password, "\r\n") {
			return strings.TrimSuffix(password, "\r\n"), nil
		}
		return strings.TrimSuffix(password, "\n"), nil
	}
	if cCtx.IsSet(PasswordFlag.Name) {
		return cCtx.String(PasswordFlag.Name), nil
	}
	return "", fmt.Errorf("a password is required, use --%s, --%s or %s", PasswordFlag.Name, PasswordFileFlag.Name, PasswordFlag.EnvVars[0])
}

// storageBackend builds the configured backends. The returned flush writes
// collected storage metrics when a metrics textfile is configured.
func storageBackend(cCtx *cli.Context) (interfaces.StorageBackend, func(), error) {
	logger := flags.SetupLogger(cCtx)

	locations, err := flags.StorageLocations(cCtx)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	metrics, err := storage.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.NewStorageBackendFactory(logger).WithMetrics(metrics).CreateMultiBackend(locations)
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		path := flags.MetricsTextfile(cCtx)
		if path == "" {
			return
		}
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			logger.Warn("Failed to write metrics", "path", path, "err", err)
		}
	}
	return backend, flush, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
