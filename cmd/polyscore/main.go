package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyscore/config"
	"github.com/alejandrodnm/polyscore/internal/adapters/httpapi"
	"github.com/alejandrodnm/polyscore/internal/adapters/notify"
	"github.com/alejandrodnm/polyscore/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyscore/internal/adapters/storage"
	"github.com/alejandrodnm/polyscore/internal/domain"
	"github.com/alejandrodnm/polyscore/internal/leaderboard"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	wallets := flag.String("wallets", "", "comma-separated wallets to rank (overrides config)")
	market := flag.String("market", "", "rate every trader of a market by slug and exit")
	trader := flag.String("trader", "", "print the report of a single wallet and exit")
	serve := flag.Bool("serve", false, "serve the latest snapshot over HTTP")
	once := flag.Bool("once", false, "run one ranking cycle and exit")
	orderings := flag.String("ordering", "", "comma-separated leaderboards to print (default: all)")
	limit := flag.Int("limit", 10, "rows per leaderboard (0 = all)")
	table := flag.Bool("table", true, "print full tables (false: one line per leaderboard)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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
	if *wallets != "" {
		cfg.Wallets = config.SplitList(*wallets)
	}
	setupLogger(cfg.Log)

	var filter []domain.Ordering
	for _, name := range config.SplitList(*orderings) {
		o, err := domain.ParseOrdering(name)
		if err != nil {
			slog.Error("invalid -ordering", "ordering", name, "valid", domain.Orderings())
			os.Exit(2)
		}
		filter = append(filter, o)
	}

	slog.Info("polyscore starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"wallets", len(cfg.Wallets),
		"scoring_version", cfg.Scoring.Version,
		"once", *once,
		"serve", *serve,
	)

	client := polymarket.NewClient(cfg.API.DataBase, cfg.API.GammaBase,
		polymarket.WithPaging(cfg.Fetch.PageSize, cfg.Fetch.MaxPages),
		polymarket.WithTimeout(cfg.Timeout()),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.Retention())
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*limit, *table, filter...)

	svcCfg := leaderboard.DefaultConfig()
	svcCfg.Interval = cfg.Interval()
	svcCfg.Wallets = cfg.Wallets
	svcCfg.Workers = cfg.Fetch.Workers
	svcCfg.Retention = cfg.Retention()
	svcCfg.Midpoint = cfg.Midpoint
	svcCfg.DryRun = *once

	svc := leaderboard.New(svcCfg, cfg.Scoring, client, client, store, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *market != "":
		if _, err := svc.RateMarket(ctx, *market); err != nil {
			slog.Error("market rating failed", "err", err, "slug", *market)
			os.Exit(1)
		}
		return
	case *trader != "":
		if _, err := svc.TraderReport(ctx, *trader); err != nil {
			slog.Error("trader report failed", "err", err, "wallet", *trader)
			os.Exit(1)
		}
		return
	}

	var srv *http.Server
	if *serve {
		srv = httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(store))
		go func() {
			slog.Info("http view listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
				cancel()
			}
		}()
	}

	if len(cfg.Wallets) > 0 {
		if err := svc.Run(ctx); err != nil {
			slog.Error("leaderboard service exited with error", "err", err)
			os.Exit(1)
		}
	} else if !*serve {
		slog.Error("no wallets configured: use -wallets, POLYSCORE_WALLETS or the config file")
		os.Exit(2)
	}

	if srv != nil {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}

	slog.Info("polyscore stopped cleanly")
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
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
