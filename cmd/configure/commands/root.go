package commands

import "github.com/spf13/cobra"

// NewRootCmd builds the port-plaisance-configure command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "port-plaisance-configure",
		Short:         "Configuration tool for the Port Plaisance API",
		Long:          "CLI tool for inspecting and updating the CORS policy and server settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewCorsCmd())
	rootCmd.AddCommand(NewEnvCmd())
	return rootCmd
}
