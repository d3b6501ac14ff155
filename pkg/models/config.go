package models

import (
	"path/filepath"
	"time"
)

// Provider identifies which LLM backend serves classification and
// normalization requests.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderAzure  Provider = "azure"
)

// TrackerConfig holds loop timing settings read from the environment (or the
// optional .trackerconfig file) via Viper.
type TrackerConfig struct {
	// TrackingInterval is the pause between iterations.
	TrackingInterval time.Duration `yaml:"tracking_interval" mapstructure:"tracking_interval"`

	// MaxRetries bounds both the capture and classification retry loops.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the pause between attempts within one phase.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// ProviderConfig holds LLM endpoint settings for the OpenAI-compatible
// backends. Provider selects which group of fields is used.
type ProviderConfig struct {
	Provider Provider `yaml:"provider" mapstructure:"provider"`

	// Standard OpenAI.
	OpenAIAPIKey string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	VisionModel  string `yaml:"vision_model" mapstructure:"vision_model"`
	TextModel    string `yaml:"text_model" mapstructure:"text_model"`

	// Azure OpenAI.
	AzureEndpoint   string `yaml:"azure_endpoint" mapstructure:"azure_endpoint"`
	AzureAPIKey     string `yaml:"azure_api_key" mapstructure:"azure_api_key"`
	AzureDeployment string `yaml:"azure_deployment" mapstructure:"azure_deployment"`
	AzureAPIVersion string `yaml:"azure_api_version" mapstructure:"azure_api_version"`
}

// Config is the full tracker configuration.
type Config struct {
	Tracker  TrackerConfig  `yaml:"tracker" mapstructure:"tracker"`
	LLM      ProviderConfig `yaml:"llm" mapstructure:"llm"`
	BasePath string         `yaml:"-" mapstructure:"-"`
}

// DataDir returns the directory holding the activity log.
func (c Config) DataDir() string {
	return filepath.Join(c.BasePath, "data")
}

// ScreenshotDir returns the directory screenshots are written to.
func (c Config) ScreenshotDir() string {
	return filepath.Join(c.DataDir(), "screenshots")
}

// LogDir returns the directory for dated tracker log files.
func (c Config) LogDir() string {
	return filepath.Join(c.BasePath, "logs")
}
