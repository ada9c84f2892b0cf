package config

const (
	defaultConfigPath          = "~/.config/subtrans/config.toml"
	defaultOllamaBaseURL       = "http://localhost:11434"
	defaultOllamaModel         = "qwen2.5:7b"
	defaultDedicatedModel      = "7shi/llama-translate:8b-q4_K_M"
	defaultOllamaTimeout       = 120
	defaultOllamaRetryAttempts = 3
	defaultSourceLanguage      = "ja"
	defaultTargetLanguage      = "zh"
	defaultLexiconPath         = "~/.config/subtrans/lexicon.yaml"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Repetition modes.
const (
	RepetitionAuto = "auto"
	RepetitionOn   = "on"
	RepetitionOff  = "off"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Ollama: Ollama{
			BaseURL:        defaultOllamaBaseURL,
			Model:          defaultOllamaModel,
			DedicatedModel: defaultDedicatedModel,
			TimeoutSeconds: defaultOllamaTimeout,
			RetryAttempts:  defaultOllamaRetryAttempts,
		},
		Translation: Translation{
			SourceLanguage: defaultSourceLanguage,
			TargetLanguage: defaultTargetLanguage,
			Repetition:     RepetitionAuto,
			LexiconPath:    defaultLexiconPath,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
