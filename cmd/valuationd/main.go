package main

import (
	"flag"
	"log/slog"
	"net/http"
	"time"
	"valuator-backend/lib/configutil"
	"valuator-backend/lib/telemetry"
	"valuator-backend/lib/util/serviceutil"
	"valuator-backend/lib/valstore"
	"valuator-backend/services/valuation"
	"valuator-backend/services/valuation/server"

	"github.com/joho/godotenv"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	godotenv.Load()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	t, err := telemetry.SetupFromEnv(ctx, "valuationd")
	if err != nil {
		slog.Warn("telemetry export disabled", "err", err)
	} else {
		defer t.Shutdown(ctx)
	}
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	opts := valuation.Options{
		Headless:        cfg.Browser.Headless,
		RemoteURL:       cfg.Browser.RemoteURL,
		RotateUserAgent: cfg.Browser.RotateUserAgent,
		CookiePath:      cfg.Browser.CookiePath,
		TargetURL:       cfg.Valuation.TargetURL,
		Deadline:        time.Duration(cfg.Valuation.DeadlineSeconds) * time.Second,
		ChallengeBudget: time.Duration(cfg.Valuation.ChallengeBudgetSeconds) * time.Second,
		MaxSessions:     cfg.Valuation.MaxSessions,
		RetryOnce:       cfg.Valuation.RetryOnce,
	}

	if cfg.Database != "" {
		store, err := valstore.Open("sqlite", cfg.Database)
		if err != nil {
			serviceutil.Fatal("open valuation store", err)
		}
		opts.Store = &store
	}

	svc := valuation.NewService(opts)

	mux := http.NewServeMux()
	mux.Handle("/", server.New(svc).Handler())

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
