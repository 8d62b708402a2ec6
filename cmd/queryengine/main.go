// Command queryengine runs the RPC-surface binary: it loads its
// configuration from the environment, wires the catalog, object store
// registry, ingestion pipeline, and query runtime together, and serves
// QueryEngineServer over gRPC until interrupted, mirroring the Rust
// original's query-engine/src/main.rs end to end.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/dataquery/engine/internal/catalog"
	"github.com/dataquery/engine/internal/config"
	"github.com/dataquery/engine/internal/ingest"
	"github.com/dataquery/engine/internal/objectstore"
	"github.com/dataquery/engine/internal/obslog"
	"github.com/dataquery/engine/internal/queryrt"
	"github.com/dataquery/engine/internal/rpccodec"
	"github.com/dataquery/engine/internal/rpcproto"
	"github.com/dataquery/engine/internal/rpcserver"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "queryengine",
		Short:         "Serves dataset ingestion, metadata, and SQL query execution over gRPC",
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
	cfg, err := config.LoadQueryEngine()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	obslog.Verbose = cfg.Verbose

	store, err := catalog.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect catalog: %w", err)
	}
	defer store.Close()

	registry := objectstore.NewRegistry(cfg.GCSBucketName)
	ingestMgr := ingest.New(registry, store)
	runtime, err := queryrt.New(registry, store)
	if err != nil {
		return fmt.Errorf("start query runtime: %w", err)
	}
	defer runtime.Close()
	rpcSrv := rpcserver.New(ingestMgr, store, runtime)

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(rpccodec.Codec()))
	rpcproto.RegisterQueryEngineServer(grpcServer, rpcSrv)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.GRPCPort, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		obslog.Infof("[MAIN] query engine listening on :%d", cfg.GRPCPort)
		serveErr <- grpcServer.Serve(lis)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	case <-sigCh:
		obslog.Infof("[MAIN] shutdown signal received, stopping gracefully")
		grpcServer.GracefulStop()
		return nil
	}
}
