package flags

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ruteri/validator-keyshares/common"
	"github.com/ruteri/validator-keyshares/interfaces"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	cfg := ConfigFrom(cCtx).Log
	service := cCtx.String("log-service")
	if !cCtx.IsSet("log-service") && cfg.Service != "" {
		service = cfg.Service
	}

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   boolFlag(cCtx, LogDebugFlag, cfg.Debug),
		JSON:    boolFlag(cCtx, LogJsonFlag, cfg.JSON),
		Service: service,
		Version: common.Version,
	})

	if boolFlag(cCtx, LogUidFlag, cfg.UID) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// StorageLocations parses every --storage value, or the configured storage
// when the flag is not given.
func StorageLocations(cCtx *cli.Context) ([]interfaces.StorageBackendLocation, error) {
	uris := cCtx.StringSlice(StorageFlag.Name)
	if len(uris) == 0 {
		uris = ConfigFrom(cCtx).Storage
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("at least one --%s location is required", StorageFlag.Name)
	}

	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

var StorageFlag = &cli.StringSliceFlag{
	Name:    "storage",
	EnvVars: []string{"KEYSHARES_STORAGE"},
	Usage:   "storage location URI (file://, s3://, ipfs://, vault://), repeat for redundancy",
}

// MetricsTextfile returns where storage metrics should be written, if anywhere.
func MetricsTextfile(cCtx *cli.Context) string {
	if path := cCtx.Path(MetricsTextfileFlag.Name); path != "" {
		return path
	}
	return ConfigFrom(cCtx).MetricsTextfile
}

var MetricsTextfileFlag = &cli.PathFlag{
	Name:  "metrics-textfile",
	Usage: "write storage metrics in Prometheus text format to this file on exit",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var CommonFlags = []cli.Flag{
	ConfigFlag,
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}
