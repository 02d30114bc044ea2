// Package config exposes brokerage credentials loaded from the environment and
// screener settings loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credentials holds the long-lived API identity. Immutable once constructed.
type Credentials struct {
	AppKey    string
	AppSecret string
	AccountNo string
	IsPaper   bool
	BaseURL   string
}

const (
	defaultPaperBaseURL = "https://mockapi.kiwoom.com"
	defaultLiveBaseURL  = "https://api.kiwoom.com"
)

// FromEnv reads credentials for the selected environment (KIWOOM_ENV=paper|live,
// paper by default). A .env file is loaded best-effort first.
func FromEnv() (*Credentials, error) {
	_ = godotenv.Load() // best-effort

	env := strings.ToLower(strings.TrimSpace(envOr("KIWOOM_ENV", "paper")))
	isPaper := env == "paper"

	var appKey, appSecret, accountNo, defaultBaseURL string
	if isPaper {
		appKey = strings.TrimSpace(os.Getenv("KIWOOM_PAPER_APP_KEY"))
		appSecret = strings.TrimSpace(os.Getenv("KIWOOM_PAPER_APP_SECRET"))
		accountNo = strings.TrimSpace(os.Getenv("KIWOOM_PAPER_ACCOUNT_NO"))
		defaultBaseURL = defaultPaperBaseURL
	} else {
		appKey = strings.TrimSpace(os.Getenv("KIWOOM_APP_KEY"))
		appSecret = strings.TrimSpace(os.Getenv("KIWOOM_APP_SECRET"))
		accountNo = strings.TrimSpace(os.Getenv("KIWOOM_ACCOUNT_NO"))
		defaultBaseURL = defaultLiveBaseURL
	}

	baseURL := strings.TrimSpace(envOr("KIWOOM_BASE_URL", defaultBaseURL))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if appKey == "" || appSecret == "" {
		return nil, fmt.Errorf("missing Kiwoom API credentials in environment")
	}

	return &Credentials{
		AppKey:    appKey,
		AppSecret: appSecret,
		AccountNo: accountNo,
		IsPaper:   isPaper,
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// App captures process-wide runtime settings.
type App struct {
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Swing groups the tunable thresholds of the signal evaluator.
type Swing struct {
	RecentHighBars int     `yaml:"recent_high_bars"`
	PullbackMin    float64 `yaml:"pullback_min"`
	PullbackMax    float64 `yaml:"pullback_max"`
	MinVolRatio    float64 `yaml:"min_vol_ratio"`
	TickUnit       string  `yaml:"tick_unit"`
}

// Screen groups the ranked-list extraction knobs.
type Screen struct {
	Limit          int     `yaml:"limit"`
	SwingMinChange float64 `yaml:"swing_min_change"`
	SwingMaxChange float64 `yaml:"swing_max_change"`
}

// Settings collects every configuration leaf for easy marshaling from YAML.
type Settings struct {
	App    App    `yaml:"app"`
	Swing  Swing  `yaml:"swing"`
	Screen Screen `yaml:"screen"`
}

// DefaultSettings returns the thresholds used when no settings file is given.
func DefaultSettings() *Settings {
	return &Settings{
		App: App{LogLevel: "info"},
		Swing: Swing{
			RecentHighBars: 120,
			PullbackMin:    0.0,
			PullbackMax:    15.0,
			MinVolRatio:    1.0,
			TickUnit:       "1",
		},
		Screen: Screen{
			Limit:          50,
			SwingMinChange: -3.0,
			SwingMaxChange: 12.0,
		},
	}
}

// LoadSettings reads a YAML file from disk and hydrates a Settings struct on
// top of the defaults.
func LoadSettings(path string) (*Settings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	settings := DefaultSettings()
	if err := yaml.NewDecoder(file).Decode(settings); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return settings, nil
}

// SaveSettings persists a Settings struct to disk as YAML.
func SaveSettings(path string, settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("nil settings")
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
