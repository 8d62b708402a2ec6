// Command toolhost runs the JSON-RPC 2.0 façade: it dials the query
// engine's gRPC endpoint and serves the tool-calling surface over HTTP
// until interrupted, mirroring the Rust original's
// mcp-server/src/main.rs end to end.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataquery/engine/internal/config"
	"github.com/dataquery/engine/internal/obslog"
	"github.com/dataquery/engine/internal/rpcclient"
	"github.com/dataquery/engine/internal/rpcserver"
	"github.com/dataquery/engine/internal/toolhost"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "toolhost",
		Short:         "Serves the JSON-RPC tool-calling façade in front of the query engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadToolHost()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	obslog.Verbose = cfg.Verbose

	client, err := rpcclient.Dial(cfg.QueryEngineEndpoint)
	if err != nil {
		return fmt.Errorf("dial query engine at %s: %w", cfg.QueryEngineEndpoint, err)
	}
	defer client.Close()

	svc := toolhost.New(client, rpcserver.Version)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: toolhost.Handler(svc),
	}

	serveErr := make(chan error, 1)
	go func() {
		obslog.Infof("[MAIN] tool host listening on :%d, upstream %s", cfg.Port, cfg.QueryEngineEndpoint)
		serveErr <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	case <-sigCh:
		obslog.Infof("[MAIN] shutdown signal received, stopping gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
