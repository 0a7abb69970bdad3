package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paletten-gigant/graphrag-chat/internal/config"
)

// runWizard is swapped out in tests.
var runWizard = config.RunWizard

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the backend URL and documents directory and saves the result to the --config path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
