// Package config holds operator-level configuration for a chemist installation.
//
// This is infrastructure config set by whoever deploys the service, NOT
// end-user state. Everything maps to an env var with the CHEMIST_ prefix
// (e.g. "supabase_url" → CHEMIST_SUPABASE_URL) and to a YAML field in
// chemist.config.yaml.
//
// External credentials (Supabase service key, OpenAI API key) intentionally
// have no defaults. A process without them still starts; requests are
// rejected with CONFIGURATION_ERROR at admission instead.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeySupabaseURL     = "supabase_url"
	KeySupabaseKey     = "supabase_key"
	KeyStorageBucket   = "storage_bucket"
	KeyOpenAIAPIKey    = "openai_api_key"
	KeyOpenAIBaseURL   = "openai_base_url"
	KeyRouterModel     = "router_model"
	KeyAnswerModel     = "answer_model"
	KeyMetadataTTLMin  = "metadata_ttl_minutes"
	KeyFallbackGuide   = "fallback_guide_path"
	KeyPremiumDataset  = "premium_dataset_path"
	KeyMaxMessageChars = "max_message_chars"
	KeyMaxHistoryItems = "max_history_items"
	KeyHistoryBudget   = "history_char_budget"
	KeyQuotaMaxReqs    = "quota_max_requests"
	KeyQuotaWindowSec  = "quota_window_seconds"
	KeyMaxDocChars     = "max_doc_chars"
	KeyGlobalRPS       = "global_rps"
)

// Defaults. Credentials intentionally have none.
const (
	DefaultStorageBucket   = "grounding-docs"
	DefaultRouterModel     = "gpt-4o-mini"
	DefaultAnswerModel     = "gpt-4o"
	DefaultMetadataTTLMin  = 10
	DefaultPremiumDataset  = "premium_products.yaml"
	DefaultMaxMessageChars = 1500
	DefaultMaxHistoryItems = 12
	DefaultHistoryBudget   = 6000
	DefaultQuotaMaxReqs    = 20
	DefaultQuotaWindowSec  = 60
	DefaultMaxDocChars     = 12000
	DefaultGlobalRPS       = 25
)

// Config holds resolved operator-level configuration for a chemist process.
type Config struct {
	SupabaseURL   string // Supabase project URL (blob-store collaborator)
	SupabaseKey   string // Supabase service key
	StorageBucket string // Bucket holding grounding docs and datasets
	OpenAIAPIKey  string // Generative-language collaborator credential
	OpenAIBaseURL string // Optional override (mock servers, proxies)

	RouterModel string // One-shot classification model
	AnswerModel string // Multi-turn answering model

	MetadataTTL        time.Duration // Snapshot lifetime
	FallbackGuidePath  string        // Local catalog guide used when the remote one is absent
	PremiumDatasetPath string        // Curated slug → product record YAML

	MaxMessageChars   int // Per-message character cap
	MaxHistoryItems   int // History entry cap after sanitization
	HistoryCharBudget int // Cumulative history character cap
	QuotaMaxRequests  int // Per-client requests per window
	QuotaWindow       time.Duration
	MaxDocChars       int // Cap on technical text injected into context
	GlobalRPS         int // Whole-process requests/second guard
}

// MissingCredentials returns the names of required external credentials that
// are not set. Non-empty means requests must be rejected with a
// configuration error before any processing.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.SupabaseURL == "" {
		missing = append(missing, "supabase_url")
	}
	if c.SupabaseKey == "" {
		missing = append(missing, "supabase_key")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "openai_api_key")
	}
	return missing
}

func init() {
	viper.SetEnvPrefix("CHEMIST")
	viper.AutomaticEnv()
	viper.SetDefault(KeyStorageBucket, DefaultStorageBucket)
	viper.SetDefault(KeyRouterModel, DefaultRouterModel)
	viper.SetDefault(KeyAnswerModel, DefaultAnswerModel)
	viper.SetDefault(KeyMetadataTTLMin, DefaultMetadataTTLMin)
	viper.SetDefault(KeyPremiumDataset, DefaultPremiumDataset)
	viper.SetDefault(KeyMaxMessageChars, DefaultMaxMessageChars)
	viper.SetDefault(KeyMaxHistoryItems, DefaultMaxHistoryItems)
	viper.SetDefault(KeyHistoryBudget, DefaultHistoryBudget)
	viper.SetDefault(KeyQuotaMaxReqs, DefaultQuotaMaxReqs)
	viper.SetDefault(KeyQuotaWindowSec, DefaultQuotaWindowSec)
	viper.SetDefault(KeyMaxDocChars, DefaultMaxDocChars)
	viper.SetDefault(KeyGlobalRPS, DefaultGlobalRPS)
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		SupabaseURL:        viper.GetString(KeySupabaseURL),
		SupabaseKey:        viper.GetString(KeySupabaseKey),
		StorageBucket:      viper.GetString(KeyStorageBucket),
		OpenAIAPIKey:       viper.GetString(KeyOpenAIAPIKey),
		OpenAIBaseURL:      viper.GetString(KeyOpenAIBaseURL),
		RouterModel:        viper.GetString(KeyRouterModel),
		AnswerModel:        viper.GetString(KeyAnswerModel),
		MetadataTTL:        time.Duration(viper.GetInt(KeyMetadataTTLMin)) * time.Minute,
		FallbackGuidePath:  viper.GetString(KeyFallbackGuide),
		PremiumDatasetPath: viper.GetString(KeyPremiumDataset),
		MaxMessageChars:    viper.GetInt(KeyMaxMessageChars),
		MaxHistoryItems:    viper.GetInt(KeyMaxHistoryItems),
		HistoryCharBudget:  viper.GetInt(KeyHistoryBudget),
		QuotaMaxRequests:   viper.GetInt(KeyQuotaMaxReqs),
		QuotaWindow:        time.Duration(viper.GetInt(KeyQuotaWindowSec)) * time.Second,
		MaxDocChars:        viper.GetInt(KeyMaxDocChars),
		GlobalRPS:          viper.GetInt(KeyGlobalRPS),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxMessageChars <= 0 {
		return errPositive("max_message_chars")
	}
	if c.MaxHistoryItems <= 0 {
		return errPositive("max_history_items")
	}
	if c.HistoryCharBudget <= 0 {
		return errPositive("history_char_budget")
	}
	if c.QuotaMaxRequests <= 0 {
		return errPositive("quota_max_requests")
	}
	if c.QuotaWindow <= 0 {
		return errPositive("quota_window_seconds")
	}
	if c.MetadataTTL <= 0 {
		return errPositive("metadata_ttl_minutes")
	}
	if c.MaxDocChars <= 0 {
		return errPositive("max_doc_chars")
	}
	return nil
}

func errPositive(key string) error {
	return fmt.Errorf("invalid configuration: %s must be positive", key)
}
