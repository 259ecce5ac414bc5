package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("TOP_K", "")
	t.Setenv("MIN_CLAIMS", "")
	t.Setenv("MAX_CLAIMS", "")
	t.Setenv("SIMILARITY_THRESHOLD", "")
	t.Setenv("MAX_REPORT_PAGES", "")
	t.Setenv("ANALYSIS_WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 50 {
		t.Fatalf("unexpected chunk defaults: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 6 {
		t.Fatalf("expected default top k 6, got %d", cfg.TopK)
	}
	if cfg.MinClaims != 8 || cfg.MaxClaims != 30 {
		t.Fatalf("unexpected claim bounds: %d/%d", cfg.MinClaims, cfg.MaxClaims)
	}
	if cfg.SimilarityThreshold != 0.7 {
		t.Fatalf("expected default similarity threshold 0.7, got %v", cfg.SimilarityThreshold)
	}
	if cfg.MaxReportPages != 3 {
		t.Fatalf("expected default max report pages 3, got %d", cfg.MaxReportPages)
	}
	if cfg.AnalysisWorkers != 3 {
		t.Fatalf("expected default analysis workers 3, got %d", cfg.AnalysisWorkers)
	}
	if cfg.NATSIndexSubject != "evidence.index" || cfg.NATSAnalyzeSubject != "reports.analyze" {
		t.Fatalf("unexpected subjects: %q/%q", cfg.NATSIndexSubject, cfg.NATSAnalyzeSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "1024")
	t.Setenv("TOP_K", "10")
	t.Setenv("SIMILARITY_THRESHOLD", "0.85")
	t.Setenv("ANALYSIS_WORKERS", "5")
	t.Setenv("LLM_RATE_LIMIT_RPS", "2.5")
	t.Setenv("LLM_RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 1024 {
		t.Fatalf("expected chunk size 1024, got %d", cfg.ChunkSize)
	}
	if cfg.TopK != 10 {
		t.Fatalf("expected top k 10, got %d", cfg.TopK)
	}
	if cfg.SimilarityThreshold != 0.85 {
		t.Fatalf("expected similarity threshold 0.85, got %v", cfg.SimilarityThreshold)
	}
	if cfg.AnalysisWorkers != 5 {
		t.Fatalf("expected analysis workers 5, got %d", cfg.AnalysisWorkers)
	}
	if cfg.LLMRateLimitRPS != 2.5 || cfg.LLMRateLimitBurst != 3 {
		t.Fatalf("unexpected llm rate limit: %v/%d", cfg.LLMRateLimitRPS, cfg.LLMRateLimitBurst)
	}
}

func TestLoadYAMLFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("chunk_size: 256\ntop_k: 4\nqdrant_collection: custom_docs\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("TOP_K", "12")
	t.Setenv("QDRANT_COLLECTION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 256 {
		t.Fatalf("expected file value 256, got %d", cfg.ChunkSize)
	}
	if cfg.QdrantCollection != "custom_docs" {
		t.Fatalf("expected file collection, got %q", cfg.QdrantCollection)
	}
	// Environment wins over the file.
	if cfg.TopK != 12 {
		t.Fatalf("expected env value 12, got %d", cfg.TopK)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
