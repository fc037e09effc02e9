package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research agent.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Scrapers  ScrapersConfig  `mapstructure:"scrapers"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Output    OutputConfig    `mapstructure:"output"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug                bool          `mapstructure:"debug"`
	DefaultTimeout       time.Duration `mapstructure:"default_timeout"`
	MaxProductsPerSite   int           `mapstructure:"max_products_per_site"`
	MinMOQ               int           `mapstructure:"min_moq"`
	MinSellerTenureYears int           `mapstructure:"min_seller_tenure_years"`
}

func (g GeneralConfig) Validate() error {
	if g.MaxProductsPerSite < 1 {
		return fmt.Errorf("general.max_products_per_site must be >= 1")
	}
	if g.MinMOQ < 0 {
		return fmt.Errorf("general.min_moq must be >= 0")
	}
	if g.MinSellerTenureYears < 0 {
		return fmt.Errorf("general.min_seller_tenure_years must be >= 0")
	}
	return nil
}

// LLMConfig points at the local chat-completion service.
type LLMConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	HealthTimeout       time.Duration `mapstructure:"health_timeout"`
	PlanningTemperature float64       `mapstructure:"planning_temperature"`
	PlanningMaxTokens   int           `mapstructure:"planning_max_tokens"`
	AnalysisTemperature float64       `mapstructure:"analysis_temperature"`
	AnalysisMaxTokens   int           `mapstructure:"analysis_max_tokens"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.BaseURL) == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	return nil
}

// BrowserConfig controls the shared chromedp session.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	UserAgent      string        `mapstructure:"user_agent"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
}

// ScrapersConfig contains per-site scraper settings.
type ScrapersConfig struct {
	SelectorTimeout time.Duration `mapstructure:"selector_timeout"`
	WholesaleBase   string        `mapstructure:"wholesale_base"`
	RetailBase      string        `mapstructure:"retail_base"`
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig contains history persistence settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings for the history store.
type PostgresConfig struct {
	URL     string        `mapstructure:"url"`
	Host    string        `mapstructure:"host"`
	Port    string        `mapstructure:"port"`
	User    string        `mapstructure:"user"`
	Pass    string        `mapstructure:"password"`
	DBName  string        `mapstructure:"dbname"`
	SSLMode string        `mapstructure:"sslmode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DSN builds a connection string, preferring an explicit URL. An empty
// return means history persistence is not configured.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	if strings.TrimSpace(p.Host) == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Pass, p.Host, port, p.DBName, ssl)
}

// OutputConfig controls where CSV exports land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig loads config from file, falling back to defaults and
// RESEARCHER_* environment variables when no file is present.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("general.debug", false)
	v.SetDefault("general.default_timeout", 30*time.Second)
	v.SetDefault("general.max_products_per_site", 10)
	v.SetDefault("general.min_moq", 100)
	v.SetDefault("general.min_seller_tenure_years", 2)
	v.SetDefault("llm.base_url", "http://localhost:8000")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.health_timeout", 5*time.Second)
	v.SetDefault("llm.planning_temperature", 0.3)
	v.SetDefault("llm.planning_max_tokens", 500)
	v.SetDefault("llm.analysis_temperature", 0.7)
	v.SetDefault("llm.analysis_max_tokens", 200)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1440)
	v.SetDefault("browser.viewport_height", 900)
	v.SetDefault("browser.nav_timeout", 30*time.Second)
	v.SetDefault("browser.settle_delay", 2*time.Second)
	v.SetDefault("scrapers.selector_timeout", 10*time.Second)
	v.SetDefault("scrapers.wholesale_base", "https://www.alibaba.com")
	v.SetDefault("scrapers.retail_base", "https://www.amazon.com")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", false)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", 5*time.Second)
	v.SetDefault("output.dir", "output")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RESEARCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// running on pure defaults/env is supported; an explicit path must exist
		if path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.General.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
