package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/spf13/cobra"
)

// NewEnvCmd prints the configuration the server would start with.
func NewEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the resolved server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", cfg.Environment)
			fmt.Fprintf(out, "port: %s\n", cfg.Port)
			fmt.Fprintf(out, "request logging: %v\n", cfg.Environment.IsDevelopment())
			if cfg.CorsConfigFile != "" {
				fmt.Fprintf(out, "cors policy file: %s\n", cfg.CorsConfigFile)
			} else {
				fmt.Fprintf(out, "cors allowed origins: %s\n", strings.Join(cfg.CorsAllowedOrigins, ","))
				fmt.Fprintf(out, "cors allow credentials: %v\n", cfg.CorsAllowCredentials)
			}
			fmt.Fprintf(out, "max body bytes: %d\n", cfg.MaxBodyBytes)
			fmt.Fprintf(out, "hsts: %v\n", cfg.EnableHSTS)
			fmt.Fprintf(out, "database configured: %v\n", cfg.DatabaseURL != "")
			fmt.Fprintf(out, "redis configured: %v\n", cfg.RedisURL != "")
			fmt.Fprintf(out, "rate limit: %s\n", cfg.RateLimit)
			return nil
		},
	}
}
