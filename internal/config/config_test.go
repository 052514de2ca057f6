package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with no config file failed: %v", err)
	}

	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("ollama url = %q", cfg.Ollama.URL)
	}
	if cfg.Ollama.Model != "qwen2.5:7b" {
		t.Errorf("ollama model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.Timeout != 60*time.Second {
		t.Errorf("ollama timeout = %v", cfg.Ollama.Timeout)
	}
	if cfg.Chat.PassCap != 5 {
		t.Errorf("pass cap = %d", cfg.Chat.PassCap)
	}
	if cfg.Chat.Sampling.NumCtx != 4096 {
		t.Errorf("num_ctx = %d", cfg.Chat.Sampling.NumCtx)
	}
	if cfg.Research.QdrantPort != 6334 {
		t.Errorf("qdrant port = %d", cfg.Research.QdrantPort)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PARLEY_OLLAMA_MODEL", "llama3.1:8b")
	t.Setenv("PARLEY_CHAT_PASS_CAP", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.Model != "llama3.1:8b" {
		t.Errorf("env override ignored, model = %q", cfg.Ollama.Model)
	}
	if cfg.Chat.PassCap != 3 {
		t.Errorf("env override ignored, pass cap = %d", cfg.Chat.PassCap)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Ollama.Model = "mistral:7b"
	cfg.Chat.PassCap = 8

	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !Exists() {
		t.Fatal("config file should exist after save")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Ollama.Model != "mistral:7b" || loaded.Chat.PassCap != 8 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestSet_RejectsUnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := Set("nonsense.key", "x"); err == nil {
		t.Error("setting an unknown key must fail")
	}

	if err := Set("ollama.model", "phi3:mini"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.Model != "phi3:mini" {
		t.Errorf("set did not persist, model = %q", cfg.Ollama.Model)
	}
}
