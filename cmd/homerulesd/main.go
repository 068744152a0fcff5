package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/larsmaeder/homerules/internal/api"
	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/engine"
	"github.com/larsmaeder/homerules/internal/mqtt"
	"github.com/larsmaeder/homerules/internal/rules"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/automations.yaml", "Path to automations YAML config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	store := rules.Build(loader.Config().Automations, logger)
	slog.Info("rule store built",
		"automations", len(loader.Config().Automations), "rules", store.Len())

	// ── MQTT host adapter ────────────────────────────────────────────────────
	mqttCfg, err := mqtt.ConfigFromEnv()
	if err != nil {
		slog.Error("invalid mqtt config", "err", err)
		os.Exit(1)
	}
	adapter := mqtt.New(mqttCfg, logger)
	if err := adapter.Connect(); err != nil {
		slog.Error("mqtt connect failed", "err", err)
		os.Exit(1)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(logger, store, adapter, adapter, adapter)
	eng.Start(adapter)

	// ── Config watcher: rebuild and swap the store on change ─────────────────
	loader.OnChange(func(cfg *config.File) {
		newStore := rules.Build(cfg.Automations, logger)
		eng.Swap(newStore)
		slog.Info("automations reloaded", "rules", newStore.Len())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (reload via API only)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Stop()
	adapter.Close()
	slog.Info("goodbye")
}
