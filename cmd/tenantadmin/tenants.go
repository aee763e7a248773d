package main

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/tenantadmin/internal/app"
	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/tenants"
	userdto "github.com/dropDatabas3/tenantadmin/internal/http/dto/users"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/tenants"
	"github.com/dropDatabas3/tenantadmin/internal/http/services/users"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/spf13/cobra"
)

func newTenantsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Operaciones directas sobre tenants",
	}
	cmd.AddCommand(newTenantsCreateCmd(c))
	cmd.AddCommand(newTenantsGetCmd(c))
	cmd.AddCommand(newTenantsDeleteCmd(c))
	return cmd
}

// withApp arma la app sin levantar HTTP y la cierra al terminar.
func withApp(ctx context.Context, c *cli, fn func(a *app.App) error) error {
	a, err := app.Build(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.L().Warn("close failed", logger.Err(err))
		}
	}()
	return fn(a)
}

// tenantView agrega los usuarios cargados a la respuesta pública.
type tenantView struct {
	dto.TenantResponse
	Users []userdto.UserResponse `json:"users,omitempty"`
}

func newTenantsCreateCmd(c *cli) *cobra.Command {
	var req dto.TenantCreationDTO
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un tenant y su administrador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), c, func(a *app.App) error {
				t, err := a.TenantService.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tenants.ToResponse(t))
			})
		},
	}
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "Nombre de la compañía")
	cmd.Flags().StringVar(&req.AdminEmail, "admin-email", "", "Email del administrador")
	cmd.Flags().StringVar(&req.AdminPassword, "admin-password", "", "Password del administrador")
	cmd.Flags().StringVar(&req.Plan, "plan", "", "Plan contratado")
	return cmd
}

func newTenantsGetCmd(c *cli) *cobra.Command {
	var withUsers bool
	cmd := &cobra.Command{
		Use:   "get <tenant-id>...",
		Short: "Lee uno o varios tenants",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := repository.NewOptionsBuilder[*repository.Tenant, string]().WithDisableTracking(true)
			if withUsers {
				b = b.WithNavigation(repository.NavTenantUsers)
			}
			opts, err := b.Build()
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), c, func(a *app.App) error {
				if len(args) == 1 {
					t, err := a.Tenants.TryGet(cmd.Context(), args[0], &opts)
					if err != nil {
						return err
					}
					if t == nil {
						return errors.New("tenant not found: " + args[0])
					}
					return printJSON(cmd.OutOrStdout(), toView(t))
				}

				list, err := a.Tenants.TryGetBatch(cmd.Context(), args, &opts)
				if err != nil {
					return err
				}
				out := make([]tenantView, 0, len(list))
				for _, t := range list {
					out = append(out, toView(t))
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().BoolVar(&withUsers, "with-users", false, "Incluir los usuarios del tenant")
	return cmd
}

func newTenantsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tenant-id>...",
		Short: "Borra uno o varios tenants",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), c, func(a *app.App) error {
				if len(args) == 1 {
					if err := a.TenantService.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
				} else if err := a.Tenants.DeleteBatch(cmd.Context(), args); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.MessageResponse{
					Message: "deleted " + strings.Join(args, ","),
				})
			})
		},
	}
}

func toView(t *repository.Tenant) tenantView {
	v := tenantView{TenantResponse: tenants.ToResponse(t)}
	for _, u := range t.Users {
		v.Users = append(v.Users, users.ToResponse(u))
	}
	return v
}
