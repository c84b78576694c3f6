package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/kozlony/internal/api"
	"github.com/dgallion1/kozlony/internal/pipeline"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()
			log, cfg := a.log, a.cfg

			worker := pipeline.NewWorker(a.fetcher, a.parser, a.summarizer, log)
			orch := pipeline.NewOrchestrator(cfg, worker, log)
			orch.Start(ctx)

			srv := api.NewServer(api.Deps{
				Issues:       a.issues,
				Fetcher:      a.fetcher,
				Parser:       a.parser,
				Summarizer:   a.summarizer,
				Stats:        a.stats,
				Orchestrator: orch,
			}, log, cfg)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				orch.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting kozlony",
				"port", cfg.Port,
				"summary_provider", cfg.SummaryProvider,
				"workers", cfg.WorkerCount,
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
