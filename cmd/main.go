package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/KotFed0t/neobroker_portfolio_importer/config"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/browser"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/service/importService"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx := utils.CreateCtxWithRqID(context.Background())
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	sessions := browser.NewManager(cfg)
	defer sessions.Release()

	var storage importService.CloudStorage
	if cfg.GoogleDrive.CredentialsFile != "" {
		drive, err := googleDriveApi.New(ctx, cfg)
		if err != nil {
			slog.Error("google drive init failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		storage = drive
	}

	svc := importService.New(sessions, storage)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(newImportCmd(cfg, svc, "scalable", instScalable), "brokers")
	subcommands.Register(newImportCmd(cfg, svc, "traderepublic", instTradeRepublic), "brokers")
	subcommands.Register(newImportCmd(cfg, svc, "all", instScalable, instTradeRepublic), "brokers")

	flag.Parse()

	os.Exit(int(subcommands.Execute(ctx)))
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
