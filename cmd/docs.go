package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents available for citation linking",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Documents())
		}

		for _, doc := range reg.Documents() {
			fmt.Printf("%-40s %8d bytes  %s\n", doc.Name, doc.Size, doc.Path)
		}
		fmt.Printf("%d documents in %s\n", reg.Len(), reg.Dir())
		return nil
	},
}

func init() {
	docsCmd.Flags().Bool("json", false, "output the registry as JSON")
	rootCmd.AddCommand(docsCmd)
}
