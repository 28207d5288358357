package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.SearchLimit != 6 || cfg.RankingLimit != 6 {
		t.Errorf("limits = %d/%d, want 6/6", cfg.SearchLimit, cfg.RankingLimit)
	}
	if cfg.ScoreThreshold != 0.5 {
		t.Errorf("ScoreThreshold = %v, want 0.5", cfg.ScoreThreshold)
	}
	if cfg.DedupStrategy != "first" {
		t.Errorf("DedupStrategy = %q, want first", cfg.DedupStrategy)
	}
	if cfg.HistoryTurns != 5 {
		t.Errorf("HistoryTurns = %d, want 5", cfg.HistoryTurns)
	}
	if cfg.NATSSubject != "documents.ingest" {
		t.Errorf("NATSSubject = %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("SCORE_THRESHOLD", "0.75")
	t.Setenv("HISTORY_TURNS", "12")
	t.Setenv("DEDUP_STRATEGY", "best")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "9999" {
		t.Errorf("APIPort = %q, want 9999", cfg.APIPort)
	}
	if cfg.ScoreThreshold != 0.75 {
		t.Errorf("ScoreThreshold = %v, want 0.75", cfg.ScoreThreshold)
	}
	if cfg.HistoryTurns != 12 {
		t.Errorf("HistoryTurns = %d, want 12", cfg.HistoryTurns)
	}
	if cfg.DedupStrategy != "best" {
		t.Errorf("DedupStrategy = %q, want best", cfg.DedupStrategy)
	}
}

func TestLoadYAMLFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "api_port: \"7070\"\nscore_threshold: 0.9\nollama_gen_model: custom-vision\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Env beats file, file beats defaults.
	if cfg.APIPort != "6060" {
		t.Errorf("APIPort = %q, want env value 6060", cfg.APIPort)
	}
	if cfg.ScoreThreshold != 0.9 {
		t.Errorf("ScoreThreshold = %v, want file value 0.9", cfg.ScoreThreshold)
	}
	if cfg.OllamaGenModel != "custom-vision" {
		t.Errorf("OllamaGenModel = %q, want file value", cfg.OllamaGenModel)
	}
	if cfg.RankingLimit != 6 {
		t.Errorf("RankingLimit = %d, want default 6", cfg.RankingLimit)
	}
}

func TestLoadFailsOnUnreadableConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadIgnoresMalformedNumericEnv(t *testing.T) {
	t.Setenv("SEARCH_LIMIT", "lots")
	t.Setenv("OLLAMA_RPS", "fast")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchLimit != 6 {
		t.Errorf("SearchLimit = %d, want default 6", cfg.SearchLimit)
	}
	if cfg.OllamaRPS != 4 {
		t.Errorf("OllamaRPS = %v, want default 4", cfg.OllamaRPS)
	}
}
