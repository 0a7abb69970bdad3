package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/progress"
	"github.com/paletten-gigant/graphrag-chat/internal/registry"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	Long: `Runs a terminal chat loop against the backend. Besides plain
questions the loop understands a few commands:

  /mode local|global|drift   change the search mode
  /k N                       change the local-search result count
  /context on|off            toggle retrieval context data
  /citations on|off          toggle citation extraction
  /open FILE.pdf             mark a registry document as open
  /close                     clear the open document
  /docs                      list the registered documents
  /clear                     reset the transcript
  /quit                      leave the chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	sess := chat.NewSession(client, reg, nil, chat.SettingsFromConfig(cfg))

	if err := client.Health(cmd.Context()); err != nil {
		fmt.Printf("Warning: backend %s is not reachable: %v\n", cfg.APIBaseURL, err)
	}
	fmt.Printf("%s (%d documents, %s search). Type /quit to exit.\n", cfg.AppTitle, reg.Len(), sess.Settings().Mode)

	prompt := promptui.Prompt{Label: ">"}
	for {
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(sess, reg, line); quit {
				return nil
			}
			continue
		}

		spinner := progress.NewSpinner(false)
		spinner.Start("Thinking...")
		turn, err := sess.Submit(cmd.Context(), line)
		spinner.Stop()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printTurn(turn)
	}
}

// runChatCommand handles a /command line. It returns true when the loop
// should exit.
func runChatCommand(sess *chat.Session, reg *registry.Registry, line string) bool {
	fields := strings.Fields(line)
	cmd, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	s := sess.Settings()

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/mode":
		if err := sess.UpdateSettings(config.SearchMode(arg), s.K, s.IncludeContext, s.IncludeCitations); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Printf("Search mode set to %s.\n", arg)
		}
	case "/k":
		k, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Println("Usage: /k N")
			break
		}
		if err := sess.UpdateSettings(s.Mode, k, s.IncludeContext, s.IncludeCitations); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Printf("k set to %d.\n", k)
		}
	case "/context":
		if arg != "on" && arg != "off" {
			fmt.Println("Usage: /context on|off")
			break
		}
		if err := sess.UpdateSettings(s.Mode, s.K, arg == "on", s.IncludeCitations); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Context data: %s.\n", onOff(sess.Settings().IncludeContext))
	case "/citations":
		if arg != "on" && arg != "off" {
			fmt.Println("Usage: /citations on|off")
			break
		}
		if err := sess.UpdateSettings(s.Mode, s.K, s.IncludeContext, arg == "on"); err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Citation extraction: %s.\n", onOff(sess.Settings().IncludeCitations))
	case "/open":
		if err := sess.OpenDocument(arg); err != nil {
			var notFound *chat.DocumentNotFoundError
			if errors.As(err, &notFound) {
				fmt.Printf("Document %q is not in the documents directory.\n", notFound.Filename)
			} else {
				fmt.Printf("Error: %v\n", err)
			}
			break
		}
		open, _ := sess.OpenDoc()
		fmt.Printf("Opened %s.\n", open)
	case "/close":
		sess.CloseDocument()
		fmt.Println("Closed the open document.")
	case "/docs":
		for _, doc := range reg.Documents() {
			fmt.Printf("  %s\n", doc.Name)
		}
		fmt.Printf("%d documents.\n", reg.Len())
	case "/clear":
		sess.Clear()
		fmt.Println("Transcript cleared.")
	default:
		fmt.Printf("Unknown command %s.\n", cmd)
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
