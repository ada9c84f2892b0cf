package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"subtrans/internal/language"
	"subtrans/internal/services"
	"subtrans/internal/services/ollama"
)

// Translator turns one piece of subtitle text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Mode selects how requests are phrased to Ollama.
type Mode string

const (
	// ModeGeneral sends an instruction prompt to a general chat model via /api/generate.
	ModeGeneral Mode = "general"
	// ModeDedicated talks to a translation-tuned model via /api/chat.
	ModeDedicated Mode = "dedicated"
)

// Backend is the subset of the Ollama client the translator uses.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// Options configures an Ollama translator.
type Options struct {
	Mode  Mode
	Model string
	From  string
	To    string
}

// Ollama translates through a local Ollama server.
type Ollama struct {
	backend Backend
	opts    Options
}

// NewOllama validates options and returns a translator bound to backend.
func NewOllama(backend Backend, opts Options) (*Ollama, error) {
	if backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "init", "ollama backend required", nil)
	}
	if opts.Mode == "" {
		opts.Mode = ModeGeneral
	}
	if opts.Mode != ModeGeneral && opts.Mode != ModeDedicated {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "init", fmt.Sprintf("unknown mode %q", opts.Mode), nil)
	}
	opts.Model = strings.TrimSpace(opts.Model)
	if opts.Model == "" {
		if opts.Mode != ModeDedicated {
			return nil, services.Wrap(services.ErrConfiguration, "translate", "init", "model required", nil)
		}
		opts.Model = ollama.DedicatedModel
	}
	from := language.ToISO2(opts.From)
	to := language.ToISO2(opts.To)
	if from == "" || to == "" {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "init",
			fmt.Sprintf("language pair %q -> %q not supported", opts.From, opts.To), nil)
	}
	if from == to {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "init", "source and target languages are the same", nil)
	}
	opts.From, opts.To = from, to
	return &Ollama{backend: backend, opts: opts}, nil
}

// Model returns the model requests are sent to.
func (o *Ollama) Model() string {
	return o.opts.Model
}

// Translate sends text to the model and returns the cleaned response.
// Blank input is returned as-is without a request.
func (o *Ollama) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	var (
		raw string
		err error
	)
	switch o.opts.Mode {
	case ModeDedicated:
		raw, err = o.backend.Chat(ctx, o.opts.Model, []ollama.Message{
			{Role: "user", Content: DedicatedPrompt(o.opts.From, o.opts.To, text)},
		})
	default:
		raw, err = o.backend.Generate(ctx, o.opts.Model, GeneralPrompt(o.opts.From, o.opts.To, text))
	}
	if err != nil {
		return "", err
	}
	cleaned := Clean(raw)
	if cleaned == "" {
		return "", services.Wrap(services.ErrTransient, "translate", "clean", "model returned no translation", ErrEmptyTranslation)
	}
	return cleaned, nil
}

// ErrEmptyTranslation reports a response that was empty after cleanup.
var ErrEmptyTranslation = errors.New("empty translation")

// GeneralPrompt builds the instruction prompt for general-purpose models.
func GeneralPrompt(from, to, text string) string {
	return fmt.Sprintf(
		"Translate the following %s text into %s. Return only the translation without any explanation:\n%s",
		language.PromptName(from), language.PromptName(to), text)
}

// DedicatedPrompt builds the instruction/input/response prompt the
// translation-tuned model was trained on.
func DedicatedPrompt(from, to, text string) string {
	return fmt.Sprintf("### Instruction:\nTranslate %s to %s.\n\n### Input:\n%s\n\n### Response:\n",
		language.PromptName(from), language.PromptName(to), text)
}

var (
	thinkBlock  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence   = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\n?(.*?)\\n?```$")
	responseTag = regexp.MustCompile(`(?i)^#{0,3}\s*response:\s*`)
)

// Clean strips reasoning blocks, code fences, and prompt echoes from a model
// response and trims surrounding whitespace.
func Clean(raw string) string {
	out := thinkBlock.ReplaceAllString(raw, "")
	// An unterminated think block means the model never got to the answer.
	if idx := strings.Index(out, "<think>"); idx >= 0 {
		out = out[:idx]
	}
	out = strings.TrimSpace(out)
	if m := codeFence.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	out = responseTag.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
