package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/progress"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the GraphRAG backend a single question",
	Long:  `Sends one question to the backend, prints the answer, and lists any cited documents found in the local documents directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().String("mode", "", "search mode: local, global, drift (default from config)")
	askCmd.Flags().Int("k", 0, "number of results for local search (default from config)")
	askCmd.Flags().Bool("context", false, "include retrieval context data in the response")
	askCmd.Flags().Bool("citations", true, "extract document citations from the answer")
	askCmd.Flags().Bool("json", false, "output the full turn as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings := chat.SettingsFromConfig(cfg)
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		settings.Mode = config.SearchMode(mode)
	}
	if k, _ := cmd.Flags().GetInt("k"); k != 0 {
		settings.K = k
	}
	if cmd.Flags().Changed("context") {
		settings.IncludeContext, _ = cmd.Flags().GetBool("context")
	}
	if cmd.Flags().Changed("citations") {
		settings.IncludeCitations, _ = cmd.Flags().GetBool("citations")
	}
	if !config.ValidMode(settings.Mode) {
		return fmt.Errorf("invalid search mode %q (want local, global or drift)", settings.Mode)
	}
	if !config.ValidK(settings.K) {
		return fmt.Errorf("k must be between %d and %d, got %d", config.MinK, config.MaxK, settings.K)
	}

	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	sess := chat.NewSession(newClient(cfg), reg, nil, settings)

	spinner := progress.NewSpinner(jsonOutput)
	spinner.Start(fmt.Sprintf("Querying backend (%s search)...", settings.Mode))
	turn, err := sess.Submit(cmd.Context(), args[0])
	spinner.Stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turn)
	}

	printTurn(turn)
	if turn.Failed {
		os.Exit(1)
	}
	return nil
}

// printTurn writes an assistant turn to stdout in the terminal format
// shared by ask and chat.
func printTurn(turn *chat.Turn) {
	fmt.Println(turn.Content)
	if len(turn.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range turn.Citations {
			fmt.Printf("  - %s\n", c.Filename)
		}
	}
	if verbose && turn.Metadata != nil {
		fmt.Fprintf(os.Stderr, "\n[%.2fs, %d LLM calls, %d prompt tokens]\n",
			turn.Metadata.CompletionTime, turn.Metadata.LLMCalls, turn.Metadata.PromptTokens)
	}
}
