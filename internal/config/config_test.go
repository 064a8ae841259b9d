package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("REGISTRATION_START", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("Env = %q, want development", cfg.Env)
	}
	if !cfg.RegistrationStart.IsZero() {
		t.Fatalf("RegistrationStart = %v, want zero", cfg.RegistrationStart)
	}
}

func TestEnvTime(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"unset", "", time.Time{}},
		{"malformed", "06.06.2026", time.Time{}},
		{"rfc3339", "2026-06-06T10:00:00Z", time.Date(2026, 6, 6, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIME_VALUE", tt.value)
			got := envTime("TEST_TIME_VALUE")
			if !got.Equal(tt.want) {
				t.Fatalf("envTime(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
