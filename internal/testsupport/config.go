package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subtrans/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The cache lives under the temp dir and the lexicon path points at a file
// that does not exist.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Cache.Path = filepath.Join(base, "cache", "translations.db")
	cfgVal.Translation.LexiconPath = filepath.Join(base, "lexicon.yaml")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOllamaURL points the config at a test server.
func WithOllamaURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ollama.BaseURL = url
		b.cfg.Ollama.RetryAttempts = 1
	}
}

// WithLanguages sets the default language pair.
func WithLanguages(from, to string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.SourceLanguage = from
		b.cfg.Translation.TargetLanguage = to
	}
}

// WithoutCache disables the translation memory.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}

// WithLogDir enables file logging under the temp dir.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Cache.Path))
}

// WriteConfig encodes cfg as TOML at path and returns path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
