package config

// SearchMode selects the retrieval strategy of the GraphRAG backend.
type SearchMode string

const (
	ModeLocal  SearchMode = "local"  // targeted fact lookup
	ModeGlobal SearchMode = "global" // broad summarization
	ModeDrift  SearchMode = "drift"  // hybrid
)

// Bounds for the local-mode result count.
const (
	MinK = 1
	MaxK = 100
)

// Config is the top-level configuration, corresponding to .graphrag-chat.yml.
type Config struct {
	APIBaseURL       string         `yaml:"api_base_url" koanf:"api_base_url"`
	APITimeoutSecs   int            `yaml:"api_timeout_seconds" koanf:"api_timeout_seconds"`
	APIMaxRetries    int            `yaml:"api_max_retries" koanf:"api_max_retries"`
	AppTitle         string         `yaml:"app_title" koanf:"app_title"`
	DefaultMode      SearchMode     `yaml:"default_search_mode" koanf:"default_search_mode"`
	DefaultK         int            `yaml:"default_k" koanf:"default_k"`
	IncludeContext   bool           `yaml:"default_include_context" koanf:"default_include_context"`
	IncludeCitations bool           `yaml:"default_include_citations" koanf:"default_include_citations"`
	DocumentsPath    string         `yaml:"documents_path" koanf:"documents_path"`
	EnablePDFViewer  bool           `yaml:"enable_pdf_viewer" koanf:"enable_pdf_viewer"`
	Server           ServerConfig   `yaml:"server" koanf:"server"`
	Registry         RegistryConfig `yaml:"registry" koanf:"registry"`
}

// ServerConfig holds settings for the web chat server.
type ServerConfig struct {
	Port     int    `yaml:"port" koanf:"port"`
	DataDir  string `yaml:"data_dir" koanf:"data_dir"` // directory for the SQLite transcript DB
	AllowAll bool   `yaml:"allow_all_cors" koanf:"allow_all_cors"`
}

// RegistryConfig controls which files in the documents directory become
// part of the document registry.
type RegistryConfig struct {
	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:       "http://127.0.0.1:9000",
		APITimeoutSecs:   30,
		APIMaxRetries:    3,
		AppTitle:         "GraphRAG Chat",
		DefaultMode:      ModeLocal,
		DefaultK:         20,
		IncludeContext:   false,
		IncludeCitations: true,
		DocumentsPath:    "./documents",
		EnablePDFViewer:  true,
		Server: ServerConfig{
			Port:    8080,
			DataDir: ".graphrag-chat",
		},
		Registry: RegistryConfig{
			Include: []string{"**/*.pdf"},
		},
	}
}
