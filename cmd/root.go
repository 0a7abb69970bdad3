package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paletten-gigant/graphrag-chat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "graphrag-chat",
	Short: "Conversational front-end for a GraphRAG backend",
	Long: `graphrag-chat talks to a remote GraphRAG HTTP backend, extracts
document citations from its answers, and links them to PDF files in a
local documents directory. It can answer a single question, run an
interactive chat in the terminal, or serve a web chat interface.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
