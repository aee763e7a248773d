package main

import (
	"github.com/dropDatabas3/tenantadmin/internal/app"
	"github.com/dropDatabas3/tenantadmin/internal/http/server"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.L().Warn("close failed", logger.Err(err))
				}
			}()

			logger.L().Info("starting tenantadmin",
				logger.String("addr", cfg.Server.Addr),
				logger.String("version", cfg.App.Version),
				logger.String("commit", commit),
			)
			return server.Run(ctx, server.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, a.Handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr)")
	return cmd
}
