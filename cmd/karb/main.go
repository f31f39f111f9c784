package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/karbbot/karb/config"
	"github.com/karbbot/karb/internal/adapters/notify"
	"github.com/karbbot/karb/internal/adapters/polymarket"
	"github.com/karbbot/karb/internal/adapters/storage"
	"github.com/karbbot/karb/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	live := flag.Bool("live", false, "enable on-chain redemption (default: dry-run)")
	redeem := flag.Bool("redeem", false, "run one check-and-redeem cycle and exit")
	history := flag.Int("history", 0, "print the last N redemption runs and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full opportunity table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("karb starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"live", *live,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := polymarket.NewClient(cfg.API.DataBase, cfg.API.CLOBBase, cfg.API.GammaBase)
	notifier := notify.NewConsole(*table)

	// El audit trail solo hace falta cuando hay redención de por medio.
	var store *storage.SQLiteStore
	if *live || *redeem || *history > 0 {
		store, err = storage.NewSQLiteStore(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *history > 0 {
		runHistory(ctx, store, notifier, *history)
		return
	}

	rdm, err := buildRedeemer(cfg, client, *live)
	if err != nil {
		slog.Error("failed to build redeemer", "err", err)
		os.Exit(1)
	}

	if *redeem {
		runRedeem(ctx, rdm, store, notifier, cfg.Wallet.Address, *live)
		return
	}

	scanCfg := scanner.DefaultConfig()
	scanCfg.Interval = cfg.ScanInterval()
	scanCfg.MinProfitPct = cfg.Scanner.MinProfitPct
	scanCfg.MinSizeUSDC = cfg.Scanner.MinSizeUSDC
	scanCfg.MaxMarkets = cfg.Scanner.MaxMarkets
	scanCfg.Live = *live
	scanCfg.Wallet = cfg.Wallet.Address

	s := scanner.New(scanCfg, client, client, notifier, rdm, store)

	if *once {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("karb stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
