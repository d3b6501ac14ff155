// Package core contains the business logic of the tracker: the
// retry-orchestrated tracking loop, topic normalization, and configuration.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// Configuration defaults, overridable via environment or .trackerconfig.
const (
	DefaultTrackingInterval = 120 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = 10 * time.Second
)

// envBindings maps config keys to their environment variables, so an
// existing .env-style setup keeps working.
var envBindings = map[string]string{
	"tracker.interval_seconds":    "TRACKING_INTERVAL_SECONDS",
	"tracker.max_retries":         "MAX_RETRIES",
	"tracker.retry_delay_seconds": "RETRY_DELAY_SECONDS",
	"llm.use_azure":               "USE_AZURE",
	"llm.openai_api_key":          "OPENAI_API_KEY",
	"llm.vision_model":            "OPENAI_VISION_MODEL",
	"llm.text_model":              "OPENAI_MODEL",
	"llm.azure_endpoint":          "AZURE_OPENAI_ENDPOINT",
	"llm.azure_api_key":           "AZURE_OPENAI_API_KEY",
	"llm.azure_deployment":        "AZURE_OPENAI_DEPLOYMENT_NAME",
	"llm.azure_api_version":       "AZURE_OPENAI_API_VERSION",
}

// LoadConfig reads tracker configuration with Viper. Precedence:
// environment > .trackerconfig in basePath > defaults. A missing config
// file is not an error.
func LoadConfig(basePath string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigName(".trackerconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("tracker.interval_seconds", int(DefaultTrackingInterval.Seconds()))
	v.SetDefault("tracker.max_retries", DefaultMaxRetries)
	v.SetDefault("tracker.retry_delay_seconds", int(DefaultRetryDelay.Seconds()))
	v.SetDefault("llm.use_azure", false)
	v.SetDefault("llm.vision_model", "gpt-4-vision-preview")
	v.SetDefault("llm.text_model", "gpt-3.5-turbo")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .trackerconfig: %w", err)
		}
	}

	provider := models.ProviderOpenAI
	if v.GetBool("llm.use_azure") {
		provider = models.ProviderAzure
	}

	cfg := &models.Config{
		BasePath: basePath,
		Tracker: models.TrackerConfig{
			TrackingInterval: time.Duration(v.GetInt("tracker.interval_seconds")) * time.Second,
			MaxRetries:       v.GetInt("tracker.max_retries"),
			RetryDelay:       time.Duration(v.GetInt("tracker.retry_delay_seconds")) * time.Second,
		},
		LLM: models.ProviderConfig{
			Provider:        provider,
			OpenAIAPIKey:    v.GetString("llm.openai_api_key"),
			VisionModel:     v.GetString("llm.vision_model"),
			TextModel:       v.GetString("llm.text_model"),
			AzureEndpoint:   v.GetString("llm.azure_endpoint"),
			AzureAPIKey:     v.GetString("llm.azure_api_key"),
			AzureDeployment: v.GetString("llm.azure_deployment"),
			AzureAPIVersion: v.GetString("llm.azure_api_version"),
		},
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks timing settings for invalid values and returns a
// clear error message identifying each problem.
func ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Tracker.TrackingInterval <= 0 {
		errs = append(errs, fmt.Sprintf("tracker.interval_seconds must be positive, got %s", cfg.Tracker.TrackingInterval))
	}
	if cfg.Tracker.MaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("tracker.max_retries must be at least 1, got %d", cfg.Tracker.MaxRetries))
	}
	if cfg.Tracker.RetryDelay < 0 {
		errs = append(errs, fmt.Sprintf("tracker.retry_delay_seconds must be non-negative, got %s", cfg.Tracker.RetryDelay))
	}

	switch cfg.LLM.Provider {
	case models.ProviderOpenAI, models.ProviderAzure, "":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q is invalid, must be openai or azure", cfg.LLM.Provider))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
