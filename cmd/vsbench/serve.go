package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	fsresults "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/filesystem/resultstore"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/httpapi"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/config"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the persisted result documents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadOffline()
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           httpapi.NewRouter(fsresults.NewStore(cfg.ResultsDir)),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() {
				log.Printf("results api listening on %s (serving %s)", cfg.HTTPAddr, cfg.ResultsDir)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Printf("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	c.bind(cmd.Flags(), "addr", config.KeyHTTPAddr)
	return cmd
}
