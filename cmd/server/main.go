package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/app"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/config"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/middleware"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/observability"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "fileingest-server",
		Short:        "Ingest Telegram documents and photos over gRPC",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC ingest server and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	check := &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: grpc %s, content=%s, records=%s\n",
				cfg.Server.GRPCAddr, cfg.Storage.Content, cfg.Storage.Records)
			return nil
		},
	}

	root.AddCommand(serve, check)
	return root
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := observability.InitLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tp, err := observability.InitTracerProvider(ctx, cfg.Tracing, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		observability.ShutdownTracerProvider(shutdownCtx, tp, logger)
	}()

	metrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}

	ingest, err := app.New(ctx, cfg, logger, metrics.Pipeline(), tp)
	if err != nil {
		return err
	}
	defer ingest.Close()

	grpcServer := grpc.NewServer(
		observability.GRPCServerOption(tp),
		middleware.ServerInterceptors(logger.Named("grpc"), metrics.GetServerMetrics(), cfg.Server.APIKeys),
	)
	server.RegisterIngestServer(grpcServer, server.NewIngestServer(ingest.Service, cfg.Server.MaxConcurrent, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	metrics.GetServerMetrics().InitializeMetrics(grpcServer)

	adminServer := observability.NewAdminServer(cfg.Server.MetricsAddr, metrics.GetHandler(), logger, ingest.Checks...)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gRPC server", zap.String("addr", cfg.Server.GRPCAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("starting metrics server", zap.String("addr", cfg.Server.MetricsAddr))
		if err := adminServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return adminServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
