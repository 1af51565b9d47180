package config

import (
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AIRTABLE_API_KEY", "pat-test")
	t.Setenv("AIRTABLE_BASE_ID", "appTest")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AirtableTable != "Leads" {
		t.Fatalf("expected default table Leads, got %q", cfg.AirtableTable)
	}
	if cfg.MaxAttachmentBytes != 10*1024*1024 {
		t.Fatalf("expected 10MiB attachment limit, got %d", cfg.MaxAttachmentBytes)
	}
	if cfg.DisqualifyDelayMs != 500 {
		t.Fatalf("expected 500ms disqualify delay, got %d", cfg.DisqualifyDelayMs)
	}
	if len(cfg.AttachmentErrorCodes) != 1 || cfg.AttachmentErrorCodes[0] != "INVALID_ATTACHMENT_OBJECT" {
		t.Fatalf("unexpected attachment error codes %v", cfg.AttachmentErrorCodes)
	}
	if cfg.AddressCountry != "au" {
		t.Fatalf("expected au, got %q", cfg.AddressCountry)
	}
}

func TestLoadAttachmentCodesList(t *testing.T) {
	setRequired(t)
	t.Setenv("ATTACHMENT_ERROR_CODES", "INVALID_ATTACHMENT_OBJECT,ATTACHMENT_TOO_LARGE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.AttachmentErrorCodes) != 2 || cfg.AttachmentErrorCodes[1] != "ATTACHMENT_TOO_LARGE" {
		t.Fatalf("unexpected attachment error codes %v", cfg.AttachmentErrorCodes)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	cases := map[string]string{
		"AIRTABLE_API_KEY": "",
		"AIRTABLE_BASE_ID": "",
		"SESSION_SECRET":   "short",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(name, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", name, value)
			}
		})
	}
}

func TestLoadOriginsAndBreaker(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://quiz.example.com,https://www.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://quiz.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.AddressBreakerFailures != 5 || cfg.AddressBreakerResetSeconds != 30 {
		t.Fatalf("unexpected breaker settings %d/%d", cfg.AddressBreakerFailures, cfg.AddressBreakerResetSeconds)
	}
}
