package middleware

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freestyle-cup/registration/internal/config"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := NewToken("secret", userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	got, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != userID {
		t.Fatalf("subject = %s, want %s", got, userID)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewToken("secret", uuid.New(), time.Now().UTC())
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	issued := time.Now().UTC().Add(-TokenValidity - time.Hour)
	token, err := NewToken("secret", uuid.New(), issued)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestCapabilitiesAt(t *testing.T) {
	t.Parallel()

	regStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	regEnd := time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)
	musicEnd := time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)

	cfg := &config.Config{
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		MusicUploadEnd:    musicEnd,
	}

	tests := []struct {
		name        string
		now         time.Time
		canRegister bool
		canUpload   bool
	}{
		{"before_window", regStart.Add(-time.Hour), false, false},
		{"window_open", regStart.Add(time.Hour), true, true},
		{"at_start", regStart, true, true},
		{"at_reg_end", regEnd, true, true},
		{"after_reg_before_music_end", regEnd.Add(time.Hour), false, true},
		{"after_music_end", musicEnd.Add(time.Hour), false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			caps := CapabilitiesAt(cfg, tt.now)
			if caps.CanRegister != tt.canRegister {
				t.Fatalf("CanRegister = %v, want %v", caps.CanRegister, tt.canRegister)
			}
			if caps.CanRegisterStarter != tt.canRegister || caps.CanCreateClub != tt.canRegister {
				t.Fatalf("starter/club capabilities diverge from CanRegister")
			}
			if caps.CanUploadMusic != tt.canUpload {
				t.Fatalf("CanUploadMusic = %v, want %v", caps.CanUploadMusic, tt.canUpload)
			}
		})
	}
}

func TestCapabilitiesUnconfiguredWindow(t *testing.T) {
	t.Parallel()

	caps := CapabilitiesAt(&config.Config{}, time.Now().UTC())
	if caps.CanRegister || caps.CanUploadMusic || caps.CanCreateClub {
		t.Fatalf("capabilities open without a configured window: %+v", caps)
	}
}
