package config

import (
	"path/filepath"
	"testing"
)

func TestListValues_NoMask(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	cfg.LLM.OpenAI.APIKey = "sk-secret-key-1234"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["llm.openai.api_key"] != "sk-secret-key-1234" {
		t.Errorf("expected unmasked llm.openai.api_key, got %v", flat["llm.openai.api_key"])
	}
	if flat["telegram.token"] != "bot-token-abcd" {
		t.Errorf("expected unmasked telegram.token, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestListValues_WithMask(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	cfg.LLM.OpenAI.APIKey = "sk-secret-key-1234"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["llm.openai.api_key"] != "***1234" {
		t.Errorf("expected masked llm.openai.api_key=***1234, got %v", flat["llm.openai.api_key"])
	}
	if flat["telegram.token"] != "***abcd" {
		t.Errorf("expected masked telegram.token=***abcd, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestSetThenGetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := SetValue(path, "log_level", "debug"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := SetValue(path, "llm.default_max_tokens", "300"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := SetValue(path, "decision.enabled", "true"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatal(err)
	}
	if v != "debug" {
		t.Errorf("expected debug, got %v", v)
	}

	v, err = GetValue(path, "llm.default_max_tokens")
	if err != nil {
		t.Fatal(err)
	}
	if v != float64(300) {
		t.Errorf("expected 300, got %v", v)
	}

	v, err = GetValue(path, "decision.enabled")
	if err != nil {
		t.Fatal(err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}
}

func TestGetValueUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := SetValue(path, "log_level", "info"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetValue(path, "nope.nothing"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetValueMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := SetValue(path, "llm.openai.api_key", "sk-secret-key-1234"); err != nil {
		t.Fatal(err)
	}
	v, err := GetValue(path, "llm.openai.api_key")
	if err != nil {
		t.Fatal(err)
	}
	if v != "***1234" {
		t.Errorf("expected masked value, got %v", v)
	}
}
