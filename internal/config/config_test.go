package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_VectorWeightOutOfRange(t *testing.T) {
	for _, w := range []float64{-0.1, 1.5} {
		cfg := validConfig()
		cfg.Retrieval.VectorWeight = w

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for vector_weight=%v", w)
		}
	}
}

func TestValidate_DuplicateThresholdAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Ingestion.DuplicateThreshold = 1.2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate_threshold > 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Database.KeyPrefix != "answerdex:" {
		t.Errorf("expected KeyPrefix='answerdex:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.VectorWeight != 0.7 {
		t.Errorf("expected VectorWeight=0.7, got %v", cfg.Retrieval.VectorWeight)
	}
	if cfg.Retrieval.KeywordCeiling != 10.0 {
		t.Errorf("expected KeywordCeiling=10.0, got %v", cfg.Retrieval.KeywordCeiling)
	}
	if cfg.Ingestion.DuplicateThreshold != 0.95 {
		t.Errorf("expected DuplicateThreshold=0.95, got %v", cfg.Ingestion.DuplicateThreshold)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Completion.Model != "gpt-4o" {
		t.Errorf("expected default completion model, got %q", cfg.Completion.Model)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15, KeyPrefix: "custom:"},
		Retrieval: RetrievalConfig{TopK: 5, VectorWeight: 0.5, KeywordCeiling: 20.0},
		Ingestion: IngestionConfig{DuplicateThreshold: 0.9},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.VectorWeight != 0.5 || cfg.Retrieval.KeywordCeiling != 20.0 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
	if cfg.Ingestion.DuplicateThreshold != 0.9 {
		t.Errorf("expected DuplicateThreshold=0.9, got %v", cfg.Ingestion.DuplicateThreshold)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ANSWERDEX_TEST_VAR", "from-env")

	in := []byte("a: ${ANSWERDEX_TEST_VAR}\nb: ${ANSWERDEX_TEST_UNSET:-fallback}\nc: ${ANSWERDEX_TEST_UNSET}")
	got := string(expandEnvVars(in))

	want := "a: from-env\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestExpandEnvVars_SetVarBeatsDefault(t *testing.T) {
	t.Setenv("ANSWERDEX_TEST_VAR", "real")

	got := string(expandEnvVars([]byte("${ANSWERDEX_TEST_VAR:-default}")))
	if got != "real" {
		t.Errorf("expected set variable to win over default, got %q", got)
	}
}
