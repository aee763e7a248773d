// Command tenantadmin sirve la API de administración de tenants y ofrece
// operaciones directas sobre el store (migraciones, alta y baja de tenants).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/dropDatabas3/tenantadmin/internal/config"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/dropDatabas3/tenantadmin/internal/store/adapters/dal"
)

var (
	version = "dev"
	commit  = ""
)

// cli guarda el estado compartido entre subcomandos.
type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "tenantadmin",
		Short:         "Administración de tenants y sus usuarios",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("TENANTADMIN_CONFIG"), "Path al YAML de configuración (env TENANTADMIN_CONFIG)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Archivo .env a cargar antes de leer el entorno")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newTenantsCmd(c))
	root.AddCommand(newTokenCmd(c))
	return root
}

// load aplica .env, config y logger. Un .env ausente no es error.
func (c *cli) load() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", c.envFile, err)
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}
	c.cfg = cfg

	logger.Init(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	})
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
