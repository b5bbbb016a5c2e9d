package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/benvon/port-plaisance/internal/database"
	"github.com/benvon/port-plaisance/internal/models"
	"github.com/benvon/port-plaisance/internal/pipeline"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/benvon/port-plaisance/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCorsCmd creates the cors configuration command with list, set and check subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List, update or check the CORS policy (stored row in the database, or CORS_* variables).",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	cmd.AddCommand(newCorsCheckCmd())
	return cmd
}

func openRepo(ctx context.Context, cfg *config.Config) (*database.CorsConfigRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return database.NewCorsConfigRepository(db), func() { _ = db.Close() }, nil
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			repo, closeDB, err := openRepo(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			c, err := repo.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "No CORS configuration in database. Use 'cors set' to add one.")
				return nil
			}
			fmt.Fprintln(out, "CORS configuration:")
			fmt.Fprintf(out, "  Allowed origins: %s\n", c.AllowedOrigins)
			fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
			fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
			return nil
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			c := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			// Reject unusable policies before touching the database
			if _, err := c.Policy(); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			repo, closeDB, err := openRepo(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Set(cmd.Context(), c); err != nil {
				return fmt.Errorf("set cors config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", policy.DefaultMaxAge, "Access-Control-Max-Age (seconds)")
	return cmd
}

func newCorsCheckCmd() *cobra.Command {
	var origin, method string
	var fromDB bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show the CORS headers the server would send for an origin",
		Long:  "Runs a request through the security headers and CORS stages with the effective policy and prints the CORS response headers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(origin) == "" {
				return fmt.Errorf("--origin is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var p *policy.CorsPolicy
			if fromDB {
				repo, closeDB, err := openRepo(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer closeDB()
				row, err := repo.Get(cmd.Context())
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				if row == nil {
					return fmt.Errorf("no CORS configuration in database")
				}
				if p, err = row.Policy(); err != nil {
					return err
				}
			} else if p, err = cfg.CorsPolicy(); err != nil {
				return err
			}

			return checkOrigin(cmd.OutOrStdout(), p, origin, strings.ToUpper(method))
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "Origin to check, e.g. https://port-plaisance.vercel.app (required)")
	cmd.Flags().StringVar(&method, "method", http.MethodOptions, "Request method to simulate")
	cmd.Flags().BoolVar(&fromDB, "database", false, "Check the policy stored in the database instead of CORS_* variables")
	return cmd
}

// checkOrigin sends one synthetic request through the pipeline and prints
// the verdict and the Access-Control-* response headers.
func checkOrigin(out io.Writer, p *policy.CorsPolicy, origin, method string) error {
	if err := validation.Validate.Var(method, "required,http_method"); err != nil {
		return fmt.Errorf("invalid --method %q: %w", method, err)
	}

	chain, err := pipeline.Build(pipeline.ServerConfig{
		Environment: config.Test,
		Policy:      p,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return err
	}
	handler := chain.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/echo", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if pattern, ok := p.Match(origin); ok {
		fmt.Fprintf(out, "allowed: %s (matches %s)\n", origin, pattern)
	} else {
		fmt.Fprintf(out, "rejected: %s\n", origin)
	}
	fmt.Fprintf(out, "status: %d\n", rec.Code)

	var names []string
	for name := range rec.Header() {
		if strings.HasPrefix(name, "Access-Control-") || name == "Vary" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(rec.Header().Values(name), ", "))
	}
	return nil
}
