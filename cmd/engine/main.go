package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/config"
	"github.com/invisible-tech/streamwatch/internal/engine"
	"github.com/invisible-tech/streamwatch/internal/server"
	"github.com/invisible-tech/streamwatch/internal/types"
	"github.com/invisible-tech/streamwatch/pkg/alertsink"
	"github.com/invisible-tech/streamwatch/pkg/filedrop"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)

	engineCfg := config.DefaultEngineConfig()
	serverCfg := config.DefaultServerConfig()

	eng := engine.New(engineCfg, log)
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serverCfg.AlertSinkEnabled {
		sink := alertsink.NewClient(alertsink.Config{
			Endpoint:    serverCfg.AlertSinkEndpoint,
			APIKey:      serverCfg.AlertSinkAPIKey,
			Timeout:     serverCfg.AlertSinkTimeout,
			MinSeverity: types.SeverityHigh,
		}, log)
		unsubscribe := sink.Attach(ctx, eng)
		defer unsubscribe()
		log.Info("Alert sink forwarding enabled")
	}

	if serverCfg.SpoolDir != "" {
		watcher, err := filedrop.New(filedrop.Config{
			Dir:         serverCfg.SpoolDir,
			RemoveAfter: true,
		}, eng, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create spool watcher")
		}
		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.WithError(err).Error("Spool watcher stopped")
			}
		}()
	}

	srv := server.New(serverCfg, eng, log)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Engine server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
