// Package config loads the autopotter configuration file and resolves
// ${ENV_VAR} placeholders against the process environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/autopotter/autopotter/internal/utils"

	"gopkg.in/yaml.v3"
)

// TokenTimeLayout is the timestamp format used for the stored access-token
// expiration date.
const TokenTimeLayout = "2006-01-02 15:04:05"

// InstagramConfig holds Meta Graph API credentials and token bookkeeping.
type InstagramConfig struct {
	AppID             string `yaml:"app_id"`
	AppSecret         string `yaml:"app_secret"`
	UserID            string `yaml:"user_id"`
	AccessToken       string `yaml:"access_token"`
	TokenExpiration   string `yaml:"token_expiration"`
	DaysBeforeRefresh int    `yaml:"days_before_refresh"`
	IncludeInsights   bool   `yaml:"include_insights"`
	APIVersion        string `yaml:"api_version"`
}

// GCSConfig holds Google Cloud Storage inventory settings.
type GCSConfig struct {
	Bucket          string   `yaml:"bucket"`
	CredentialsPath string   `yaml:"credentials_path"`
	Folders         []string `yaml:"folders"`
	DraftFolder     string   `yaml:"draft_folder"`
}

// OpenAIConfig holds the draft-generator LLM settings.
type OpenAIConfig struct {
	APIKey       string            `yaml:"api_key"`
	Model        string            `yaml:"model"`
	Temperature  float64           `yaml:"temperature"`
	Instructions string            `yaml:"instructions"`
	DraftPrompt  string            `yaml:"draft_prompt"`
	IncludeFiles map[string]string `yaml:"include_files"`
}

// RenderConfig holds json2video-style render service settings.
type RenderConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	PollSeconds        int     `yaml:"poll_seconds"`
	MinDurationSeconds float64 `yaml:"min_duration_seconds"`
	// ThumbnailOffsetMS is derived from (duration-1)*1000 when zero.
	ThumbnailOffsetMS int `yaml:"thumbnail_offset_ms"`
}

// PublishConfig holds the container-readiness polling budget.
type PublishConfig struct {
	MaxPolls    int  `yaml:"max_polls"`
	PollSeconds int  `yaml:"poll_seconds"`
	FromURL     bool `yaml:"from_url"`
}

// Config is the full autopotter configuration.
type Config struct {
	Instagram InstagramConfig `yaml:"instagram"`
	GCS       GCSConfig       `yaml:"gcs"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Render    RenderConfig    `yaml:"render"`
	Publish   PublishConfig   `yaml:"publish"`

	// ReloadAnalytics refreshes the Instagram analytics export before drafting.
	ReloadAnalytics bool   `yaml:"reload_analytics"`
	AnalyticsPath   string `yaml:"analytics_path"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a YAML config file, resolves ${ENV_VAR} placeholders, applies
// defaults and validates required fields.
func Load(path string) (*Config, error) {
	utils.LogVerbose("Loading configuration from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	resolved := resolveEnvPlaceholders(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	utils.LogVerbose("Configuration loaded successfully")
	return cfg, nil
}

// resolveEnvPlaceholders replaces ${VAR} occurrences with environment values.
// Unset variables keep the placeholder so validation can report them by name.
func resolveEnvPlaceholders(text string) string {
	return envPlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		name := envPlaceholder.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		utils.LogWarning("Environment variable %s is not set", name)
		return match
	})
}

func (c *Config) applyDefaults() {
	if c.Instagram.APIVersion == "" {
		c.Instagram.APIVersion = "v22.0"
	}
	if c.Instagram.DaysBeforeRefresh == 0 {
		c.Instagram.DaysBeforeRefresh = 7
	}
	if c.Render.BaseURL == "" {
		c.Render.BaseURL = "https://api.json2video.com/v2"
	}
	if c.Render.TimeoutSeconds == 0 {
		c.Render.TimeoutSeconds = 300
	}
	if c.Render.PollSeconds == 0 {
		c.Render.PollSeconds = 10
	}
	if c.Render.MinDurationSeconds == 0 {
		c.Render.MinDurationSeconds = 2
	}
	if c.Publish.MaxPolls == 0 {
		c.Publish.MaxPolls = 20
	}
	if c.Publish.PollSeconds == 0 {
		c.Publish.PollSeconds = 15
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.AnalyticsPath == "" {
		c.AnalyticsPath = "instagram_analytics_result.json"
	}
}

// Validate checks that every required credential and identifier is present.
// Unresolved ${ENV_VAR} placeholders count as missing.
func (c *Config) Validate() error {
	required := map[string]string{
		"openai.api_key":         c.OpenAI.APIKey,
		"render.api_key":         c.Render.APIKey,
		"instagram.app_id":       c.Instagram.AppID,
		"instagram.app_secret":   c.Instagram.AppSecret,
		"instagram.user_id":      c.Instagram.UserID,
		"instagram.access_token": c.Instagram.AccessToken,
		"gcs.bucket":             c.GCS.Bucket,
	}

	var missing []string
	for key, value := range required {
		if value == "" || envPlaceholder.MatchString(value) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Instagram.TokenExpiration != "" {
		if _, err := time.Parse(TokenTimeLayout, c.Instagram.TokenExpiration); err != nil {
			return fmt.Errorf("invalid instagram.token_expiration %q: %w", c.Instagram.TokenExpiration, err)
		}
	}
	return nil
}

// TokenExpired reports whether the stored access token is within the refresh
// window (or has no recorded expiration at all).
func (c *Config) TokenExpired(now time.Time) bool {
	if c.Instagram.TokenExpiration == "" {
		return true
	}
	expiration, err := time.Parse(TokenTimeLayout, c.Instagram.TokenExpiration)
	if err != nil {
		return true
	}
	window := time.Duration(c.Instagram.DaysBeforeRefresh) * 24 * time.Hour
	return expiration.Sub(now) <= window
}

// Save persists the rotated access token and its expiration back to path.
// Only those two fields are patched into the raw file contents, so values
// sourced from ${ENV_VAR} placeholders stay as placeholders and secrets
// never land on disk resolved.
func (c *Config) Save(path string) error {
	raw := map[string]interface{}{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	instagram, ok := raw["instagram"].(map[string]interface{})
	if !ok {
		instagram = map[string]interface{}{}
	}
	instagram["access_token"] = c.Instagram.AccessToken
	instagram["token_expiration"] = c.Instagram.TokenExpiration
	raw["instagram"] = instagram

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := utils.EnsureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
