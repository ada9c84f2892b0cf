package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"subtrans/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOllama(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOllama() error {
	parsed, err := url.Parse(c.Ollama.BaseURL)
	if err != nil {
		return fmt.Errorf("ollama.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("ollama.base_url must use http or https, got %q", c.Ollama.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("ollama.base_url must include a host, got %q", c.Ollama.BaseURL)
	}
	if c.Ollama.Model == "" && !c.Ollama.UseDedicatedModel {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("ollama.model is required. Set SUBTRANS_MODEL env var or edit %s (create with 'subtrans config init')", defaultPath)
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		return errors.New("ollama.timeout_seconds must be positive")
	}
	if c.Ollama.RetryAttempts <= 0 {
		return errors.New("ollama.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TargetLanguage == language.Auto {
		return errors.New("translation.target_language cannot be auto")
	}
	if c.Translation.SourceLanguage == c.Translation.TargetLanguage {
		return fmt.Errorf("translation.source_language and translation.target_language are both %q", c.Translation.SourceLanguage)
	}
	switch c.Translation.Repetition {
	case RepetitionAuto, RepetitionOn, RepetitionOff:
	default:
		return fmt.Errorf("translation.repetition must be one of auto, on, off (got %q)", c.Translation.Repetition)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
