package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vegasq/parsearch/reader"
	"github.com/vegasq/parsearch/search"
	"github.com/vegasq/parsearch/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			catalog := a.cfg.Catalog()
			source := reader.NewParquetSource(catalog)
			cache, err := search.NewCache(source, a.cacheConfig(), a.logger)
			if err != nil {
				return err
			}
			svc := search.NewService(cache, a.logger)
			defer svc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting search service", "datasources", len(catalog.List()), "workers", a.cfg.Search.Workers)
			return server.New(svc, source, catalog, a.logger).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config http.addr)")
	return cmd
}
