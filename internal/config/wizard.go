package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultConfigFile is the config file name written by the wizard.
const DefaultConfigFile = ".graphrag-chat.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	fmt.Println("Welcome to graphrag-chat! Let's configure your chat interface.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend URL.
	urlPrompt := promptui.Prompt{
		Label:   "GraphRAG backend URL",
		Default: cfg.APIBaseURL,
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend URL: %w", err)
	}
	cfg.APIBaseURL = strings.TrimSpace(baseURL)

	// 2. Documents directory.
	docsPrompt := promptui.Prompt{
		Label:   "Documents directory (PDF sources)",
		Default: cfg.DocumentsPath,
	}
	docsPath, err := docsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("documents path: %w", err)
	}
	cfg.DocumentsPath = strings.TrimSpace(docsPath)

	// 3. Default search mode.
	modePrompt := promptui.Select{
		Label: "Default search mode",
		Items: []string{
			"local  - targeted fact lookup",
			"global - broad summarization",
			"drift  - hybrid",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	modes := []SearchMode{ModeLocal, ModeGlobal, ModeDrift}
	cfg.DefaultMode = modes[modeIdx]

	// 4. Result count for local mode.
	kPrompt := promptui.Prompt{
		Label:   fmt.Sprintf("Result count k [%d-%d]", MinK, MaxK),
		Default: strconv.Itoa(cfg.DefaultK),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("not a number")
			}
			if !ValidK(n) {
				return fmt.Errorf("must be between %d and %d", MinK, MaxK)
			}
			return nil
		},
	}
	kStr, err := kPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("k selection: %w", err)
	}
	cfg.DefaultK, _ = strconv.Atoi(strings.TrimSpace(kStr))

	// 5. PDF viewer.
	viewerPrompt := promptui.Select{
		Label: "Enable inline PDF viewer",
		Items: []string{"yes", "no"},
	}
	viewerIdx, _, err := viewerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("viewer selection: %w", err)
	}
	cfg.EnablePDFViewer = viewerIdx == 0

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)

	return cfg, nil
}
