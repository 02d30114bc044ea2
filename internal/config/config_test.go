package config

import (
	"path/filepath"
	"testing"
)

func TestFromEnvPaperDefaults(t *testing.T) {
	t.Setenv("KIWOOM_ENV", "paper")
	t.Setenv("KIWOOM_PAPER_APP_KEY", "pk")
	t.Setenv("KIWOOM_PAPER_APP_SECRET", "ps")
	t.Setenv("KIWOOM_PAPER_ACCOUNT_NO", "12345678-01")
	t.Setenv("KIWOOM_BASE_URL", "")

	creds, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if !creds.IsPaper {
		t.Fatalf("expected paper environment")
	}
	if creds.AppKey != "pk" || creds.AppSecret != "ps" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
	if creds.BaseURL != "https://mockapi.kiwoom.com" {
		t.Fatalf("unexpected base URL: %s", creds.BaseURL)
	}
}

func TestFromEnvLiveOverridesBaseURL(t *testing.T) {
	t.Setenv("KIWOOM_ENV", "live")
	t.Setenv("KIWOOM_APP_KEY", "lk")
	t.Setenv("KIWOOM_APP_SECRET", "ls")
	t.Setenv("KIWOOM_BASE_URL", "https://example.test/")

	creds, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if creds.IsPaper {
		t.Fatalf("expected live environment")
	}
	if creds.BaseURL != "https://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", creds.BaseURL)
	}
}

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("KIWOOM_ENV", "paper")
	t.Setenv("KIWOOM_PAPER_APP_KEY", "")
	t.Setenv("KIWOOM_PAPER_APP_SECRET", "")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestLoadSettings(t *testing.T) {
	settings, err := LoadSettings(filepath.Join("testdata", "settings.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if settings.App.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", settings.App.LogLevel)
	}
	if settings.App.MetricsAddr != ":9105" {
		t.Fatalf("unexpected metrics addr: %s", settings.App.MetricsAddr)
	}
	if settings.Swing.RecentHighBars != 60 {
		t.Fatalf("unexpected recent high bars: %d", settings.Swing.RecentHighBars)
	}
	if settings.Swing.PullbackMin != 2.5 || settings.Swing.PullbackMax != 12.0 {
		t.Fatalf("unexpected pullback band: %+v", settings.Swing)
	}
	if settings.Swing.TickUnit != "5" {
		t.Fatalf("unexpected tick unit: %s", settings.Swing.TickUnit)
	}
	if settings.Screen.Limit != 30 {
		t.Fatalf("unexpected limit: %d", settings.Screen.Limit)
	}
	if settings.Screen.SwingMinChange != -2.0 || settings.Screen.SwingMaxChange != 10.0 {
		t.Fatalf("unexpected swing change band: %+v", settings.Screen)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if settings.Swing.RecentHighBars != 120 {
		t.Fatalf("unexpected default recent high bars: %d", settings.Swing.RecentHighBars)
	}
	if settings.Swing.MinVolRatio != 1.0 {
		t.Fatalf("unexpected default min vol ratio: %.2f", settings.Swing.MinVolRatio)
	}
	if settings.Screen.Limit != 50 {
		t.Fatalf("unexpected default limit: %d", settings.Screen.Limit)
	}
}
