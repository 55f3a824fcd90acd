package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/app"
	internalgrpc "github.com/ryanparsons7/calendly-notion/internal/server/grpc"
	internalhttp "github.com/ryanparsons7/calendly-notion/internal/server/http"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const pruneInterval = time.Hour

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run sync passes periodically and expose their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer cancel()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	c, err := prepare(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}
	defer c.Close()

	grpcServer := internalgrpc.NewServer(c.config.Server.Grpc)
	appOpts := []app.Option{withHealth(grpcServer)}
	if pruner, ok := c.store.(app.Pruner); ok && c.config.Sync.RetainDays > 0 {
		appOpts = append(appOpts, app.WithPruner(pruner, time.Duration(c.config.Sync.RetainDays)*24*time.Hour))
	}
	importer := app.New(c.engine, c.config.SyncerConfig(), appOpts...)

	go func() {
		if err := grpcServer.Start(ctx); err != nil {
			log.Errorf("grpc server failed: %v", err)
		}
	}()
	mux, err := grpcServer.GatewayMux(ctx)
	if err != nil {
		return err
	}
	httpServer := internalhttp.NewServer(c.config.Server.HTTP, importer)

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := httpServer.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
		if err := grpcServer.Stop(ctx); err != nil {
			log.Error("failed to stop grpc server: " + err.Error())
		}
	}()
	go schedule(ctx, importer, c.config.Sync.Interval)

	log.Info("importer is running...")
	return httpServer.Start(ctx, mux)
}

// withHealth mirrors the outcome of every pass in the gRPC health service.
func withHealth(s *internalgrpc.Server) app.Option {
	return app.WithObserver(func(status app.Status) {
		s.SetServing(status.Healthy)
	})
}

func schedule(ctx context.Context, importer *app.App, interval time.Duration) {
	syncTicker := time.NewTicker(interval)
	defer syncTicker.Stop()
	pruneTicker := time.NewTicker(pruneInterval)
	defer pruneTicker.Stop()

	for {
		if _, err := importer.Sync(ctx); err == nil {
			log.WithField("summary", importer.Status().Report.String()).Info("scheduled pass finished")
		}

		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
		case <-pruneTicker.C:
			if _, err := importer.Prune(ctx); err != nil {
				log.Errorf("failed to remove old records: %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-syncTicker.C:
			}
		}
	}
}
