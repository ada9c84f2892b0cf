package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"subtrans/internal/config"
	"subtrans/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	generated  atomic.Int32
}

// setupCLITestEnv starts a fake Ollama server that "translates" by wrapping
// the prompt text in brackets and writes a config pointing at it.
func setupCLITestEnv(t *testing.T, models ...string) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("SUBTRANS_MODEL", "")

	if len(models) == 0 {
		models = []string{"qwen2.5:7b"}
	}
	env := &cliTestEnv{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "0.6.0"})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		list := make([]map[string]any, 0, len(models))
		for _, name := range models {
			list = append(list, map[string]any{"name": name, "size": 4_700_000_000})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": list})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		env.generated.Add(1)
		_, text, _ := strings.Cut(req.Prompt, "\n")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "[" + text + "]", "done": true})
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	env.cfg = testsupport.NewConfig(t, testsupport.WithOllamaURL(env.server.URL))
	env.baseDir = testsupport.BaseDir(env.cfg)
	env.configPath = testsupport.WriteConfig(t, filepath.Join(env.baseDir, "config.toml"), env.cfg)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", substr, output)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
