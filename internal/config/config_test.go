package config

import "testing"

func TestLoadServerConfigDefaultsPort(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := loadServerConfig()
	if err != nil {
		t.Fatalf("loadServerConfig err: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}

func TestLoadServerConfigAcceptsFullAddr(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9999")

	cfg, err := loadServerConfig()
	if err != nil {
		t.Fatalf("loadServerConfig err: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}

func TestLoadAgentConfigRejectsUnknownMode(t *testing.T) {
	t.Setenv("AGENT_MODE", "bedrock")

	if _, err := loadAgentConfig(); err == nil {
		t.Fatal("expected error for unknown AGENT_MODE")
	}
}

func TestLoadAgentConfigReplayRequiresPath(t *testing.T) {
	t.Setenv("AGENT_MODE", "replay")
	t.Setenv("AGENT_REPLAY_PATH", "")

	if _, err := loadAgentConfig(); err == nil {
		t.Fatal("expected error for replay mode without a recording path")
	}
}

func TestLoadRelayConfigDefaults(t *testing.T) {
	t.Setenv("SUMMARY_ENABLED", "")
	t.Setenv("RELAY_STREAM_TIMEOUT", "")

	cfg, err := loadRelayConfig()
	if err != nil {
		t.Fatalf("loadRelayConfig err: %v", err)
	}
	if !cfg.SummariesEnabled {
		t.Fatal("summaries must default to enabled")
	}
	if cfg.StreamIdleTimeout != 0 {
		t.Fatalf("stall policy must default to disabled, got %v", cfg.StreamIdleTimeout)
	}
}

func TestLoadRelayConfigRejectsBadBool(t *testing.T) {
	t.Setenv("SUMMARY_ENABLED", "certainly")

	if _, err := loadRelayConfig(); err == nil {
		t.Fatal("expected error for invalid SUMMARY_ENABLED")
	}
}

func TestLoadCORSConfigSplitsOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := loadCORSConfig()
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origin %q", cfg.AllowedOrigins[1])
	}
}
