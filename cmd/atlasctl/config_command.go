package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recipeatlas/server/internal/infrastructure/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	var listKeys bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listKeys {
				for _, key := range config.Keys() {
					fmt.Fprintf(out, "%-32s %s\n", key, envName(key))
				}
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Configuration OK\n")
			fmt.Fprintf(out, "  environment: %s\n", cfg.App.Environment)
			fmt.Fprintf(out, "  listen:      %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			if cfg.Database.Driver == "sqlite" {
				fmt.Fprintf(out, "  database:    sqlite %s\n", cfg.Database.Path)
			} else {
				fmt.Fprintf(out, "  database:    postgres %s:%d/%s (%d replicas)\n",
					cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, len(cfg.Database.ReadReplicas))
			}
			fmt.Fprintf(out, "  sessions:    %s\n", cfg.Session.Store)
			return nil
		},
	}

	cmd.Flags().BoolVar(&listKeys, "keys", false, "List every setting with its environment variable")
	return cmd
}

func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
