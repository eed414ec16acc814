// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestURL_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     URL
		wantErr bool
	}{
		{"https://github.com/dota2-divine-ui/divine-ui/archive/master.zip", false},
		{"http://127.0.0.1:8080/version.txt", false},
		{"", true},
		{"github.com/no/scheme", true},
		{"ftp://example.com/file", true},
		{"https://", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.url), func(t *testing.T) {
			t.Parallel()
			err := tt.url.Validate("field")
			if (err != nil) != tt.wantErr {
				t.Fatalf("URL(%q).Validate() error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("error should wrap ErrInvalidURL, got: %v", err)
			}
		})
	}
}

func TestLogLevel_Validate(t *testing.T) {
	t.Parallel()

	for _, lvl := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if err := lvl.Validate(); err != nil {
			t.Errorf("LogLevel(%q).Validate() = %v, want nil", lvl, err)
		}
	}

	for _, lvl := range []LogLevel{"", "trace", "INFO"} {
		err := lvl.Validate()
		if !errors.Is(err, ErrInvalidLogLevel) {
			t.Errorf("LogLevel(%q).Validate() = %v, want ErrInvalidLogLevel", lvl, err)
		}
	}
}

func TestConfig_Validate_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Source.Mirrors = nil
	cfg.Network.Timeout = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("got %d field errors, want 3: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("errors.Is should match both aggregate and field sentinels: %v", err)
	}
}

func TestConfig_Validate_MirrorBound(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Source.Mirrors = nil
	for range maxMirrors + 1 {
		cfg.Source.Mirrors = append(cfg.Source.Mirrors, "https://mirror.example/ui.zip")
	}
	cfg.Network.Timeout = time.Second

	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for %d mirrors", len(cfg.Source.Mirrors))
	}
}
