// Package config loads runtime configuration for the comparison, selection,
// and aggregation engines, following the teacher's yaml.v3 + os.ExpandEnv
// pattern (internal/config/config.go's Load) generalized from the teacher's
// FinOps-specific shape to the core engines' env-driven options
// (SPEC_FULL.md §6).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the costintel CLI and its engines.
type Config struct {
	AWS      AWSConfig      `yaml:"aws"`
	Azure    AzureConfig    `yaml:"azure"`
	GCP      GCPConfig      `yaml:"gcp"`
	Budgets  []BudgetConfig `yaml:"budgets"`
	Anomaly  AnomalyConfig  `yaml:"anomaly"`
	Alerting AlertingConfig `yaml:"alerting"`
	Reporter ReporterConfig `yaml:"reporter"`
	Engine   EngineConfig   `yaml:"engine"`
}

// AWSConfig holds AWS-specific configuration.
type AWSConfig struct {
	Enabled     bool     `yaml:"enabled"`
	RoleARN     string   `yaml:"role_arn"`
	Region      string   `yaml:"region"`
	AccountIDs  []string `yaml:"account_ids"`
	Granularity string   `yaml:"granularity"`
	GroupBy     []string `yaml:"group_by"`
}

// AzureConfig holds Azure-specific configuration.
type AzureConfig struct {
	Enabled         bool     `yaml:"enabled"`
	TenantID        string   `yaml:"tenant_id"`
	SubscriptionIDs []string `yaml:"subscription_ids"`
	UseMSI          bool     `yaml:"use_msi"`
	Granularity     string   `yaml:"granularity"`
}

// GCPConfig holds GCP-specific configuration.
type GCPConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BillingAccount string `yaml:"billing_account"`
	ProjectID      string `yaml:"project_id"`
	Dataset        string `yaml:"dataset"`
	WIFConfigPath  string `yaml:"wif_config_path"`
}

// BudgetConfig seeds one budget definition at startup.
type BudgetConfig struct {
	Name         string   `yaml:"name"`
	Provider     string   `yaml:"provider"`
	Scope        string   `yaml:"scope"`
	MonthlyLimit float64  `yaml:"monthly_limit"`
	AlertAt      []int    `yaml:"alert_at"`
	NotifyEmails []string `yaml:"notify_emails"`
	NotifySlack  string   `yaml:"notify_slack"`
}

// AnomalyConfig configures anomaly detection.
type AnomalyConfig struct {
	Enabled              bool    `yaml:"enabled"`
	LookbackDays         int     `yaml:"lookback_days"`
	DeviationThreshold   float64 `yaml:"deviation_threshold"`
	MinimumCostThreshold float64 `yaml:"minimum_cost_threshold"`
}

// AlertingConfig configures alerting channels.
type AlertingConfig struct {
	Email EmailConfig `yaml:"email"`
	Slack SlackConfig `yaml:"slack"`
}

// EmailConfig configures email alerting.
type EmailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPHost   string   `yaml:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port"`
	FromAddr   string   `yaml:"from_addr"`
	Recipients []string `yaml:"recipients"`
}

// SlackConfig configures Slack alerting.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// ReporterConfig configures report generation.
type ReporterConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// EngineConfig carries the comparison/selection/cache tuning options named
// in spec.md §6's configuration table.
type EngineConfig struct {
	CacheTTL                 time.Duration `yaml:"cache_ttl"`
	ComparisonTimeout        time.Duration `yaml:"comparison_timeout"`
	SelectionTimeout         time.Duration `yaml:"selection_timeout"`
	MaxConcurrentEvaluations int           `yaml:"max_concurrent_evaluations"`
	CacheHitRatioTarget      float64       `yaml:"cache_hit_ratio_target"`
	MaxRetries               int           `yaml:"max_retries"`
	DefaultCurrency          string        `yaml:"default_currency"`
	SimulationMode           bool          `yaml:"simulation_mode"`
}

func (e *EngineConfig) applyDefaults() {
	if e.CacheTTL <= 0 {
		e.CacheTTL = 5 * time.Minute
	}
	if e.ComparisonTimeout <= 0 {
		e.ComparisonTimeout = 30 * time.Second
	}
	if e.SelectionTimeout <= 0 {
		e.SelectionTimeout = 30 * time.Second
	}
	if e.MaxConcurrentEvaluations <= 0 {
		e.MaxConcurrentEvaluations = 10
	}
	if e.CacheHitRatioTarget <= 0 {
		e.CacheHitRatioTarget = 0.8
	}
	if e.MaxRetries <= 0 {
		e.MaxRetries = 3
	}
	if e.DefaultCurrency == "" {
		e.DefaultCurrency = "USD"
	}
}

// Load reads path, expands ${ENV_VAR} references (the teacher's
// os.ExpandEnv pattern), and parses it as YAML, applying every engine
// default spec.md §6 names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Anomaly.LookbackDays == 0 {
		cfg.Anomaly.LookbackDays = 30
	}
	if cfg.Anomaly.DeviationThreshold == 0 {
		cfg.Anomaly.DeviationThreshold = 25
	}
	if cfg.Reporter.OutputDir == "" {
		cfg.Reporter.OutputDir = "./reports"
	}
	cfg.Engine.applyDefaults()

	return &cfg, nil
}
