package main

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/dropDatabas3/tenantadmin/internal/store/adapters/pg"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas de Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Storage.Driver != "postgres" {
				return errors.New("migrate requires storage.driver=postgres")
			}
			pool, err := pgxpool.New(ctx, c.cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			m := pg.NewMigrator(pool)
			if status {
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				for _, p := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "pending %04d %s\n", p.Version, p.Name)
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "up to date")
				}
				return nil
			}

			res, err := m.Run(ctx)
			if err != nil {
				return err
			}
			logger.L().Info("migrations done",
				logger.Count(len(res.Applied)),
				logger.Duration(res.Duration),
			)
			for _, v := range res.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %04d\n", v)
			}
			if len(res.Applied) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "up to date (%d skipped)\n", len(res.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Solo listar migraciones pendientes")
	return cmd
}
