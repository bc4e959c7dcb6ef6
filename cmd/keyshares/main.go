package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/validator-keyshares/cmd/flags"
	"github.com/urfave/cli/v2"
)

var KeystoreFileFlag = &cli.PathFlag{
	Name:  "keystore",
	Usage: "path to a v1, v3 or v4 keystore JSON file",
}

var KeySharesFileFlag = &cli.PathFlag{
	Name:  "keyshares",
	Usage: "path to a KeyShares JSON file",
}

var PasswordFlag = &cli.StringFlag{
	Name:    "password",
	EnvVars: []string{"KEYSHARES_PASSWORD"},
	Usage:   "keystore password, used byte for byte",
}

var PasswordFileFlag = &cli.PathFlag{
	Name:  "password-file",
	Usage: "file holding the keystore password; one trailing line break is dropped",
}

var TimeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Value: 5 * time.Minute,
	Usage: "abort key derivation after this long",
}

var ShowPrivateKeyFlag = &cli.BoolFlag{
	Name:  "show-private-key",
	Usage: "print the recovered private key",
}

var OperatorKeyFlag = &cli.StringFlag{
	Name:     "operator-key",
	Required: true,
	Usage:    "base64-encoded operator RSA public key",
}

var ContentIDFlag = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "content ID (64 hex characters) returned by store",
}

var ContentTypeFlag = &cli.StringFlag{
	Name:  "type",
	Value: "keyshares",
	Usage: "content type to fetch: keyshares or keystore",
}

var OutputFileFlag = &cli.PathFlag{
	Name:  "out",
	Usage: "write fetched content to this file instead of stdout",
}

func main() {
	app := &cli.App{
		Name:   "keyshares",
		Usage:  "Recover validator keys from keystores and manage KeyShares files",
		Flags:  append([]cli.Flag{flags.LogServiceFlagFn("keyshares")}, flags.CommonFlags...),
		Before: flags.LoadConfig,
		Commands: []*cli.Command{
			{
				Name:   "decrypt",
				Usage:  "Recover the key of a keystore file",
				Flags:  []cli.Flag{KeystoreFileFlag, PasswordFlag, PasswordFileFlag, TimeoutFlag, ShowPrivateKeyFlag},
				Action: decryptAction,
			},
			{
				Name:   "validate",
				Usage:  "Validate a KeyShares file and list every failed check",
				Flags:  []cli.Flag{KeySharesFileFlag},
				Action: validateAction,
			},
			{
				Name:   "check-operator",
				Usage:  "Check that an operator public key can be used for share encryption",
				Flags:  []cli.Flag{OperatorKeyFlag},
				Action: checkOperatorAction,
			},
			{
				Name:   "store",
				Usage:  "Validate and store a KeyShares or keystore file",
				Flags:  []cli.Flag{KeySharesFileFlag, KeystoreFileFlag, flags.StorageFlag, flags.MetricsTextfileFlag},
				Action: storeAction,
			},
			{
				Name:   "fetch",
				Usage:  "Fetch a stored KeyShares (validated on the way out) or keystore file",
				Flags:  []cli.Flag{ContentIDFlag, ContentTypeFlag, OutputFileFlag, flags.StorageFlag, flags.MetricsTextfileFlag},
				Action: fetchAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
