package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8080" {
		t.Errorf("Port = %q", c.Port)
	}
	if c.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v", c.JWTTTL)
	}
	if c.WelcomeCredits != 100 {
		t.Errorf("WelcomeCredits = %d", c.WelcomeCredits)
	}
	if c.RabbitURL != "" {
		t.Errorf("RabbitURL should default to empty, got %q", c.RabbitURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("WELCOME_CREDITS", "50")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", c.Addr())
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", c.AllowedOrigins)
	}
	if c.WelcomeCredits != 50 {
		t.Errorf("WelcomeCredits = %d", c.WelcomeCredits)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("RIVER_MAX_WORKERS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"noisy": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
