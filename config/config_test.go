package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("OVERPASS_TIMEOUT", "")

	cfg := Load()
	if cfg.Port != ":5000" {
		t.Fatalf("expected :5000, got %q", cfg.Port)
	}
	if cfg.StoreBackend != BackendMongo {
		t.Fatalf("expected mongo backend, got %q", cfg.StoreBackend)
	}
	if cfg.OverpassTimeout != 25*time.Second {
		t.Fatalf("expected 25s overpass timeout, got %v", cfg.OverpassTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("USERDATA_BACKEND", "bogus")
	t.Setenv("FEED_MAX_ENTRIES", "25")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	if cfg.Port != ":8081" {
		t.Fatalf("expected :8081, got %q", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if cfg.UserDataBackend != BackendMongo {
		t.Fatalf("unknown backend should fall back to mongo, got %q", cfg.UserDataBackend)
	}
	if !cfg.UsesMongo() {
		t.Fatal("expected UsesMongo with mongo userdata backend")
	}
	if cfg.FeedMaxEntries != 25 {
		t.Fatalf("expected 25, got %d", cfg.FeedMaxEntries)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadGeneratesSecretWhenUnset(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	a, b := Load().JWTSecret, Load().JWTSecret
	if len(a) != 64 || a == b || a == "change_me" {
		t.Fatalf("expected distinct random secrets, got %q and %q", a, b)
	}

	t.Setenv("JWT_SECRET", "from-env")
	if got := Load().JWTSecret; got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}
