package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/burrow/cmd/config"
	"github.com/stratastor/burrow/cmd/health"
	"github.com/stratastor/burrow/cmd/logs"
	"github.com/stratastor/burrow/cmd/serve"
	"github.com/stratastor/burrow/cmd/status"
	"github.com/stratastor/burrow/cmd/version"
	cfg "github.com/stratastor/burrow/config"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "burrow",
		Short: "Burrow: ZFS storage node agent",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.LoadConfig(configPath)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(logs.NewLogsCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
