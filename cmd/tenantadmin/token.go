package main

import (
	"errors"
	"strings"
	"time"

	jwtx "github.com/dropDatabas3/tenantadmin/internal/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		sub, tenantID, email, roles string
		ttl                         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un access token HS256 con el secreto configurado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			if sub == "" {
				return errors.New("--sub is required")
			}
			iss := jwtx.NewIssuer([]byte(c.cfg.Auth.JWTSecret), c.cfg.Auth.Issuer, c.cfg.Auth.Audience)
			if ttl > 0 {
				iss.AccessTTL = ttl
			}

			claims := jwtx.Claims{
				Email:            email,
				TenantID:         tenantID,
				RegisteredClaims: jwtv5.RegisteredClaims{Subject: sub},
			}
			for _, r := range strings.Split(roles, ",") {
				if r = strings.TrimSpace(r); r != "" {
					claims.Roles = append(claims.Roles, r)
				}
			}

			tok, exp, err := iss.Sign(claims)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"access_token": tok,
				"token_type":   "Bearer",
				"expires_at":   exp.UTC().Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "Subject del token")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Restringe el token a un tenant (vacío = operador)")
	cmd.Flags().StringVar(&email, "email", "", "Email a incluir en los claims")
	cmd.Flags().StringVar(&roles, "roles", "", "Roles separados por coma")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Vida del token (default del issuer)")
	return cmd
}
