package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subtrans/internal/services"
	"subtrans/internal/services/ollama"
)

type fakeBackend struct {
	generatePrompts []string
	chatMessages    [][]ollama.Message
	models          []string
	response        string
	err             error
}

func (f *fakeBackend) Generate(_ context.Context, model, prompt string) (string, error) {
	f.models = append(f.models, model)
	f.generatePrompts = append(f.generatePrompts, prompt)
	return f.response, f.err
}

func (f *fakeBackend) Chat(_ context.Context, model string, messages []ollama.Message) (string, error) {
	f.models = append(f.models, model)
	f.chatMessages = append(f.chatMessages, messages)
	return f.response, f.err
}

func TestGeneralModeUsesGenerate(t *testing.T) {
	backend := &fakeBackend{response: "  对，明白了\n"}
	tr, err := NewOllama(backend, Options{Model: "qwen2.5:7b", From: "ja", To: "zh"})
	if err != nil {
		t.Fatalf("NewOllama returned error: %v", err)
	}
	got, err := tr.Translate(context.Background(), "そう、わかった")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "对，明白了" {
		t.Fatalf("unexpected translation %q", got)
	}
	if len(backend.generatePrompts) != 1 || len(backend.chatMessages) != 0 {
		t.Fatalf("expected one generate call, got %d generate %d chat", len(backend.generatePrompts), len(backend.chatMessages))
	}
	prompt := backend.generatePrompts[0]
	for _, want := range []string{"Japanese", "Mandarin", "\nそう、わかった"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt %q missing %q", prompt, want)
		}
	}
	if backend.models[0] != "qwen2.5:7b" {
		t.Fatalf("unexpected model %q", backend.models[0])
	}
}

func TestDedicatedModeUsesChatTemplate(t *testing.T) {
	backend := &fakeBackend{response: "Right, got it."}
	tr, err := NewOllama(backend, Options{Mode: ModeDedicated, From: "jpn", To: "english"})
	if err != nil {
		t.Fatalf("NewOllama returned error: %v", err)
	}
	if tr.Model() != ollama.DedicatedModel {
		t.Fatalf("expected dedicated model default, got %q", tr.Model())
	}
	if _, err := tr.Translate(context.Background(), "そう、わかった"); err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if len(backend.chatMessages) != 1 {
		t.Fatalf("expected chat call, got %d", len(backend.chatMessages))
	}
	msg := backend.chatMessages[0][0]
	want := "### Instruction:\nTranslate Japanese to English.\n\n### Input:\nそう、わかった\n\n### Response:\n"
	if msg.Role != "user" || msg.Content != want {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestTranslateBlankSkipsBackend(t *testing.T) {
	backend := &fakeBackend{response: "x"}
	tr, _ := NewOllama(backend, Options{Model: "m", From: "ja", To: "zh"})
	got, err := tr.Translate(context.Background(), "  ")
	if err != nil || got != "  " {
		t.Fatalf("Translate(blank) = %q, %v", got, err)
	}
	if len(backend.models) != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestTranslateErrors(t *testing.T) {
	boom := services.Wrap(services.ErrTransient, "ollama", "generate", "", errors.New("boom"))
	tr, _ := NewOllama(&fakeBackend{err: boom}, Options{Model: "m", From: "ja", To: "zh"})
	if _, err := tr.Translate(context.Background(), "text"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}

	tr, _ = NewOllama(&fakeBackend{response: "<think>hmm</think>\n"}, Options{Model: "m", From: "ja", To: "zh"})
	if _, err := tr.Translate(context.Background(), "text"); !errors.Is(err, ErrEmptyTranslation) {
		t.Fatalf("expected empty translation error, got %v", err)
	}
}

func TestNewOllamaValidation(t *testing.T) {
	cases := []struct {
		name    string
		backend Backend
		opts    Options
	}{
		{"nil backend", nil, Options{Model: "m", From: "ja", To: "zh"}},
		{"missing model", &fakeBackend{}, Options{From: "ja", To: "zh"}},
		{"bad mode", &fakeBackend{}, Options{Mode: "fast", Model: "m", From: "ja", To: "zh"}},
		{"unsupported language", &fakeBackend{}, Options{Model: "m", From: "fr", To: "zh"}},
		{"same language", &fakeBackend{}, Options{Model: "m", From: "zh", To: "chinese"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOllama(tc.backend, tc.opts); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"  你好  ":                        "你好",
		"<think>\nreasoning\n</think>\n你好": "你好",
		"```\n你好\n```":                  "你好",
		"```text\nhello\n```":           "hello",
		"### Response: hi":              "hi",
		"answer<think>never closed":     "answer",
		"":                              "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFuncAdapter(t *testing.T) {
	var tr Translator = Func(func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	})
	got, err := tr.Translate(context.Background(), "abc")
	if err != nil || got != "ABC" {
		t.Fatalf("Func.Translate = %q, %v", got, err)
	}
}
