package config

import (
	"fmt"
	"os"
	"strings"

	"subtrans/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeOllama()
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeOllama() {
	if value, ok := os.LookupEnv("OLLAMA_HOST"); ok && strings.TrimSpace(value) != "" {
		c.Ollama.BaseURL = value
	}
	c.Ollama.BaseURL = normalizeBaseURL(c.Ollama.BaseURL)
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaultOllamaBaseURL
	}
	if value, ok := os.LookupEnv("SUBTRANS_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Ollama.Model = value
	}
	c.Ollama.Model = strings.TrimSpace(c.Ollama.Model)
	c.Ollama.DedicatedModel = strings.TrimSpace(c.Ollama.DedicatedModel)
	if c.Ollama.DedicatedModel == "" {
		c.Ollama.DedicatedModel = defaultDedicatedModel
	}
}

// normalizeBaseURL accepts OLLAMA_HOST style values such as "0.0.0.0:11434".
func normalizeBaseURL(value string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}
	return value
}

func (c *Config) normalizeTranslation() error {
	source := strings.TrimSpace(c.Translation.SourceLanguage)
	if source == "" {
		source = defaultSourceLanguage
	}
	normalized, err := language.Normalize(source)
	if err != nil {
		return fmt.Errorf("translation.source_language: %w", err)
	}
	c.Translation.SourceLanguage = normalized

	target := strings.TrimSpace(c.Translation.TargetLanguage)
	if target == "" {
		target = defaultTargetLanguage
	}
	if normalized, err = language.Normalize(target); err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	c.Translation.TargetLanguage = normalized

	c.Translation.Repetition = strings.ToLower(strings.TrimSpace(c.Translation.Repetition))
	switch c.Translation.Repetition {
	case "":
		c.Translation.Repetition = RepetitionAuto
	case "true", "yes", "always":
		c.Translation.Repetition = RepetitionOn
	case "false", "no", "never":
		c.Translation.Repetition = RepetitionOff
	}

	if c.Translation.LexiconPath, err = expandPath(strings.TrimSpace(c.Translation.LexiconPath)); err != nil {
		return fmt.Errorf("translation.lexicon_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath()
	}
	var err error
	if c.Cache.Path, err = expandPath(strings.TrimSpace(c.Cache.Path)); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
