package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subtrans/internal/services"
	"subtrans/internal/testsupport"
)

func TestTranslateCommandWritesOutputAndUsesCache(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.WriteSRT(t, env.baseDir, "episode.ja.srt", []testsupport.Cue{
		{Start: time.Second, End: 2 * time.Second, Text: "そうそうそうそう、わかった"},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "こんにちは"},
	})

	out, _, err := runCLI(t, []string{"translate", "--to", "zh", input}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "episode.zh.srt")
	requireContains(t, out, "Japanese → Chinese")

	output := filepath.Join(env.baseDir, "episode.zh.srt")
	content := readFile(t, output)
	requireContains(t, content, "[对*4、わかった]")
	requireContains(t, content, "[こんにちは]")
	requireContains(t, content, "00:00:01,000 --> 00:00:02,000")
	if got := env.generated.Load(); got != 2 {
		t.Fatalf("expected 2 generate calls, got %d", got)
	}

	if err := os.Remove(output); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"translate", input}, env.configPath); err != nil {
		t.Fatalf("second translate: %v", err)
	}
	if got := env.generated.Load(); got != 2 {
		t.Fatalf("expected cached second run, got %d generate calls", got)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries:  2")
	requireContains(t, out, "Hits:     2")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached translations")
}

func TestTranslateCommandNoCompressAndNoCache(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.WriteSRT(t, env.baseDir, "clip.srt", []testsupport.Cue{
		{Start: time.Second, End: 2 * time.Second, Text: "そうそうそうそう、わかった"},
	})
	output := filepath.Join(env.baseDir, "out", "clip-en.srt")
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"translate", "--from", "japanese", "--to", "en", "--no-compress", "--no-cache", "-o", output, input}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, readFile(t, output), "[そうそうそうそう、わかった]")
	if _, err := os.Stat(env.cfg.Cache.Path); !os.IsNotExist(err) {
		t.Fatalf("expected cache to stay unopened, stat err = %v", err)
	}
}

func TestTranslateCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.WriteSRT(t, env.baseDir, "clip.srt", []testsupport.Cue{
		{Start: time.Second, End: 2 * time.Second, Text: "hello"},
	})

	_, _, err := runCLI(t, []string{"translate", "--to", "fr", input}, env.configPath)
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("expected usage exit code, got %d (%v)", services.ExitCode(err), err)
	}

	_, _, err = runCLI(t, []string{"translate", "-o", "x.srt", input, input}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for --output with two inputs, got %v", err)
	}

	_, _, err = runCLI(t, []string{"translate", filepath.Join(env.baseDir, "missing.srt")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDetectCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"detect", "そうそうそうそう、わかった"}, "")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	requireContains(t, out, "Core: そう、わかった")
	requireContains(t, out, "phrase")

	out, _, err = runCLI(t, []string{"detect", "--json", "--translated", "对，明白了", "そうそうそうそう、わかった"}, "")
	if err != nil {
		t.Fatalf("detect --json: %v", err)
	}
	var payload struct {
		Found         bool   `json:"found"`
		Core          string `json:"core"`
		Reconstructed string `json:"reconstructed"`
		Descriptors   []struct {
			Kind  string `json:"kind"`
			Unit  string `json:"unit"`
			Count int    `json:"count"`
		} `json:"descriptors"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if !payload.Found || payload.Reconstructed != "对*4，明白了" || payload.Descriptors[0].Kind != "phrase" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	out, _, err = runCLI(t, []string{"detect", "今日は", "いい天気"}, "")
	if err != nil {
		t.Fatalf("detect plain: %v", err)
	}
	requireContains(t, out, "No repetition detected")
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t, "qwen2.5:7b", "llama3:latest")

	out, _, err := runCLI(t, []string{"health"}, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "version 0.6.0")
	requireContains(t, out, "qwen2.5:7b installed")
	requireContains(t, out, "llama3:latest")
	requireContains(t, out, "4.4 GiB")

	env = setupCLITestEnv(t, "other:latest")
	out, _, err = runCLI(t, []string{"health"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) || services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("expected missing model error, got %v", err)
	}
	requireContains(t, out, "missing")

	out, _, _ = runCLI(t, []string{"health", "--json"}, env.configPath)
	var report struct {
		Ready  bool `json:"ready"`
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if report.Ready || len(report.Models) != 1 || report.Models[0].Name != "other:latest" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.server.URL)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
}

func TestInvalidConfigExitsWithUsageCode(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[translation]\ntarget_language = \"klingon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) || services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("expected configuration error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"--log-level", "loud", "config", "validate"}, setupCLITestEnv(t).configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected bad log level to be rejected, got %v", err)
	}
}
