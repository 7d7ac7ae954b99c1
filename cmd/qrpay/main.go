package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/georgemunganga/qrpay/internal/config"
	"github.com/georgemunganga/qrpay/internal/logging"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("qrpay")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "qrpay",
		Usage:   "QR payment status demo: customer sessions and cashier terminals",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file read before the environment",
			},
		},
		Commands: []*cli.Command{
			customerCommand(),
			cashierCommand(),
			serveCommand(),
		},
	}
}

// setup loads configuration and the logger for a subcommand.
func setup(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return config.Config{}, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

// requireSharedStore rejects drivers that cannot be seen from another process. The customer
// and cashier commands run as separate processes and only meet in the store.
func requireSharedStore(cfg config.Config) error {
	if cfg.StoreDriver == config.DriverMemory {
		return fmt.Errorf("STORE_DRIVER=%s is private to one process; use %s or %s so customer and cashier share records",
			config.DriverMemory, config.DriverSQLite, config.DriverPostgres)
	}
	return nil
}
