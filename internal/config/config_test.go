package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	t.Setenv("BALANCE_CACHE_TTL_SECONDS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "milkbook.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SessionTTLMinutes != 720 {
		t.Fatalf("expected default session ttl 720, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %q", cfg.Address())
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "-5")
	t.Setenv("BALANCE_CACHE_TTL_SECONDS", "nope")

	cfg := Load()
	if cfg.SessionTTLMinutes != 720 {
		t.Fatalf("negative ttl should fall back, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.BalanceCacheTTLSeconds != 20 {
		t.Fatalf("unparseable ttl should fall back, got %d", cfg.BalanceCacheTTLSeconds)
	}
}

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}
