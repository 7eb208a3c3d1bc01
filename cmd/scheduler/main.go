// Command scheduler runs the sync scheduler (§4.J): a long-lived process
// that ticks on an interval, selects eligible tenants from the registry,
// and fans out a bounded-concurrency email ingestion pass per user.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walterra/eddo-core/internal/config"
	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/email"
	"github.com/walterra/eddo-core/internal/obslog"
	"github.com/walterra/eddo-core/internal/obstrace"
	"github.com/walterra/eddo-core/internal/registry"
	"github.com/walterra/eddo-core/internal/scheduler"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "eddo email sync scheduler",
	Long: `eddo-scheduler

Periodically selects tenants with email sync enabled from the eddo tenant
registry and ingests their unread messages as todos, deduplicating across
sources via each todo's externalId.

Configuration is read entirely from the environment (see §6).`,
	RunE: runScheduler,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional .env file to load before startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	if err := config.LoadOptionalFile(cfgFile); err != nil {
		return err
	}
	cfg := config.Load()

	logger := obslog.New(obslog.Config{
		Level:        obslog.Level(cfg.LogLevel),
		ForceConsole: cfg.ForceConsole,
		Service:      "scheduler",
	})
	appLog := obslog.NewContext(logger, map[string]interface{}{"service": "scheduler"})

	tp, err := obstrace.FromEnv("eddo-scheduler", "dev")
	if err != nil {
		return fmt.Errorf("scheduler: init tracing: %w", err)
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	client, err := docstore.NewClient(cfg.CouchDBURL)
	if err != nil {
		return fmt.Errorf("scheduler: connect couchdb: %w", err)
	}

	prefix := cfg.Prefix()
	reg := registry.New(client, prefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("scheduler: ensure registry database: %w", err)
	}

	schedCfg := scheduler.DefaultConfig()
	schedCfg.DefaultSyncGap = cfg.EmailSyncInterval
	schedCfg.Concurrency = int64(cfg.EmailSyncConcurrency)
	schedCfg.FetchTimeout = cfg.EmailFetchTimeout
	schedCfg.OAuthCredentials = email.OAuthCredentials{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		TokenURL:     "https://oauth2.googleapis.com/token",
	}

	sched := scheduler.New(schedCfg, client, reg, prefix, cfg.CouchDBURL, appLog)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLog.Info("scheduler: shutdown signal received")
		cancel()
	}()

	appLog.WithField("tickInterval", schedCfg.TickInterval.String()).Info("scheduler: starting")
	return sched.Run(ctx)
}
