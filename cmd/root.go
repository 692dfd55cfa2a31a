package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	envFile string
)

func newRootCmd(version string, buildTime string, gitCommit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram-fashion-bot",
		Short: "telegram-fashion-bot turns garment photos into catalog shots with Gemini.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print the effective configuration on start")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with secret overrides")

	cmd.AddCommand(newVersionCmd(version, buildTime, gitCommit))
	cmd.AddCommand(newStartCmd(version, buildTime))
	return cmd
}

func Execute(version string, buildTime string, gitCommit string) error {
	if err := newRootCmd(version, buildTime, gitCommit).Execute(); err != nil {
		return fmt.Errorf("error executing root command: %w", err)
	}

	return nil
}
