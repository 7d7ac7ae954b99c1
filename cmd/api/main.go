package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/config"
	"github.com/georgemunganga/qrpay/internal/logging"
	"github.com/georgemunganga/qrpay/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Bool("broker", cfg.RabbitURL != "").
		Msg("starting qrpay api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("qrpay api stopped")
	}
}
