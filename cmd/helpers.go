package cmd

import (
	"fmt"
	"time"

	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/graphrag"
	"github.com/paletten-gigant/graphrag-chat/internal/registry"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", cfgFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w\nRun `graphrag-chat init` to regenerate it", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *graphrag.Client {
	return graphrag.New(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSecs)*time.Second, cfg.APIMaxRetries)
}

func newRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg, err := registry.New(cfg.DocumentsPath, cfg.Registry.Include, cfg.Registry.Exclude)
	if err != nil {
		return nil, fmt.Errorf("scanning documents directory %s: %w", cfg.DocumentsPath, err)
	}
	return reg, nil
}
