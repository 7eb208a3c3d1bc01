// Command toolserver runs the authenticated tool server (§4.H, §5): a
// single HTTP endpoint that authenticates each request against the tenant
// registry and dispatches to the fixed tool catalog.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walterra/eddo-core/internal/authgate"
	"github.com/walterra/eddo-core/internal/config"
	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/obslog"
	"github.com/walterra/eddo-core/internal/obstrace"
	"github.com/walterra/eddo-core/internal/registry"
	"github.com/walterra/eddo-core/internal/toolserver"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "toolserver",
	Short: "eddo tool server",
	Long: `eddo-toolserver

Authenticates MCP-style tool calls against the eddo tenant registry and
dispatches them to the fixed todo tool catalog (plus user and server
introspection tools) over a single POST /mcp endpoint.

Configuration is read entirely from the environment (see §6); --config
is accepted for parity with the rest of the fleet's CLIs but currently
only selects which .env-style file, if any, is sourced before startup.`,
	RunE: runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional .env file to load before startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.LoadOptionalFile(cfgFile); err != nil {
		return err
	}
	cfg := config.Load()

	logger := obslog.New(obslog.Config{
		Level:        obslog.Level(cfg.LogLevel),
		ForceConsole: cfg.ForceConsole,
		Service:      "toolserver",
	})
	appLog := obslog.NewContext(logger, map[string]interface{}{"service": "toolserver"})

	tp, err := obstrace.FromEnv("eddo-toolserver", "dev")
	if err != nil {
		return fmt.Errorf("toolserver: init tracing: %w", err)
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	client, err := docstore.NewClient(cfg.CouchDBURL)
	if err != nil {
		return fmt.Errorf("toolserver: connect couchdb: %w", err)
	}

	prefix := cfg.Prefix()
	reg := registry.New(client, prefix)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("toolserver: ensure registry database: %w", err)
	}
	if err := reg.SetupDesignDocuments(ctx); err != nil {
		return fmt.Errorf("toolserver: setup registry views: %w", err)
	}

	gate := authgate.New(reg)
	deps := &toolserver.Deps{
		Client:   client,
		Registry: reg,
		Gate:     gate,
		Prefix:   prefix,
		CouchURL: cfg.CouchDBURL,
	}

	srvCfg := toolserver.DefaultServerConfig()
	srvCfg.Port = cfg.MCPServerPort
	srvCfg.CORSOrigin = cfg.CORSOrigin

	e := toolserver.NewEchoServer(srvCfg, deps, appLog)

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLog.Info("toolserver: shutdown signal received")
		shutdownCancel()
	}()

	appLog.WithField("port", srvCfg.Port).Info("toolserver: starting")
	if err := toolserver.StartServer(shutdownCtx, e, srvCfg); err != nil {
		return fmt.Errorf("toolserver: serve: %w", err)
	}
	return nil
}
