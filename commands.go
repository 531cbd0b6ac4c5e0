package main

import (
	"charades/config"
	"charades/crypto"
	"charades/migrations"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	ErrMissingDeviceId = errors.New("missing-device-id")
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "charades",
		Short:         "charades party game server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")

	load := func() (config.Config, error) {
		return config.Load(configFile)
	}

	root.AddCommand(newServeCmd(load), newMigrateCmd(load), newEntitlementCmd(load))
	return root
}

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func newMigrateCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return config.ErrMissingPostgresURL
			}
			return migrations.Migrate(cfg.Postgres.URL)
		},
	}
}

func newEntitlementCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		deviceId string
		premium  bool
		maxAge   time.Duration
	)

	grant := &cobra.Command{
		Use:   "grant",
		Short: "print a signed entitlement token for a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Entitlement.JWTKey == "" {
				return config.ErrMissingJWTKey
			}
			if deviceId == "" {
				return ErrMissingDeviceId
			}
			if maxAge == 0 {
				maxAge = cfg.Entitlement.TokenAge
			}

			token, err := crypto.NewJWTManager(cfg.Entitlement.JWTKey, maxAge).Generate(deviceId, premium, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	grant.Flags().StringVar(&deviceId, "device", "", "device id the token is bound to")
	grant.Flags().BoolVar(&premium, "premium", true, "grant premium access")
	grant.Flags().DurationVar(&maxAge, "max-age", 0, "token lifetime (defaults to entitlement.token_age)")

	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "manage entitlement tokens",
	}
	cmd.AddCommand(grant)
	return cmd
}
