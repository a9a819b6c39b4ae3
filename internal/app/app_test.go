package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/agnesleth/hello-poor/config"
	"github.com/agnesleth/hello-poor/internal/domain"
)

func testConfig(storage config.StorageConfig) *config.Config {
	return &config.Config{
		Storage: storage,
		Cache:   config.CacheConfig{TTL: time.Hour},
		Scraper: config.ScraperConfig{BaseURL: "http://127.0.0.1:1"},
		Matching: config.MatchingConfig{
			Threshold: 50,
			Weighted:  true,
		},
		Cleaner: config.CleanerConfig{
			NoisePhrases: []string{"lägg i inköpslista"},
			Corrections:  []config.CorrectionRule{{From: "Haloumi", To: "Halloumi"}},
			StorePrefix:  "ICA",
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		storage config.StorageConfig
	}{
		{"memory storage", config.StorageConfig{Type: "memory"}},
		{"sqlite storage", config.StorageConfig{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			application, err := New(testConfig(tt.storage))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer application.Close()

			stores, err := application.Offers.ListStores(context.Background())
			if err != nil {
				t.Fatalf("ListStores() error = %v", err)
			}
			if len(stores) != 0 {
				t.Errorf("ListStores() = %d stores, want 0", len(stores))
			}

			catalog, _ := application.Offers.Extract([]domain.Candidate{{Name: "Haloumi", Price: "35 kr"}})
			if !catalog.Has("Halloumi") {
				t.Errorf("configured corrections not applied, got %v", catalog.Names())
			}

			_, err = application.Recommendations.Recommend(context.Background(), &domain.RecommendRequest{StoreIDs: []string{"1"}})
			if !errors.Is(err, domain.ErrLLMNotConfigured) {
				t.Errorf("Recommend() without api key error = %v, want ErrLLMNotConfigured", err)
			}
		})
	}
}

func TestNew_SQLiteOpenFailure(t *testing.T) {
	cfg := testConfig(config.StorageConfig{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "missing", "test.db")})

	if _, err := New(cfg); err == nil {
		t.Error("New() with unwritable sqlite path should fail")
	}
}

func TestTermWeights(t *testing.T) {
	t.Run("unweighted gives empty table", func(t *testing.T) {
		weights := TermWeights(config.MatchingConfig{Weighted: false, TermWeights: map[string]float64{"beef": 5}})
		if len(weights) != 0 {
			t.Errorf("TermWeights() = %v, want empty", weights)
		}
	})

	t.Run("configured weights overlay defaults", func(t *testing.T) {
		weights := TermWeights(config.MatchingConfig{
			Weighted:    true,
			TermWeights: map[string]float64{"Beef": 5, "vitlök": 2.5},
		})
		if weights["beef"] != 5 {
			t.Errorf("weights[beef] = %v, want 5", weights["beef"])
		}
		if weights["vitlök"] != 2.5 {
			t.Errorf("weights[vitlök] = %v, want 2.5", weights["vitlök"])
		}
		if weights["fresh"] != 2 {
			t.Errorf("weights[fresh] = %v, want default 2", weights["fresh"])
		}
	})
}

func TestCleanerConfig(t *testing.T) {
	cfg := CleanerConfig(config.CleanerConfig{
		NoisePhrases: []string{"klipp"},
		Corrections:  []config.CorrectionRule{{From: "moröter", To: "morötter"}},
		StorePrefix:  "ICA",
	}, true)

	if len(cfg.Corrections) != 1 || cfg.Corrections[0].From != "moröter" || cfg.Corrections[0].To != "morötter" {
		t.Errorf("Corrections = %v", cfg.Corrections)
	}
	if cfg.StorePrefix != "ICA" || !cfg.EnableDebugLogging {
		t.Errorf("CleanerConfig() = %+v", cfg)
	}
}
