package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/pkg/constants"
	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	PIM     PIMConfig
	Shopify ShopifyConfig
	Sync    SyncConfig
	RunLog  RunLogConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// PIMConfig locates the PIM source.
type PIMConfig struct {
	URL        string   `validate:"required,url"`
	Partitions []string `validate:"min=1,dive,required"`
	User       string
	Password   string
	Language   string
}

// ShopifyConfig identifies the target store.
type ShopifyConfig struct {
	Store       string `validate:"required"`
	AccessToken string `validate:"required"`
	APIVersion  string
}

// SyncConfig tunes the import engine.
type SyncConfig struct {
	Vendor         string
	MutationDelay  time.Duration `validate:"gte=0"`
	SplitThreshold int           `validate:"gte=1"`
	Namespace      string        `validate:"required"`
	// Categories maps PIM type/category labels to taxonomy category IDs.
	Categories map[string]string
}

// RunLogConfig selects where run summaries are persisted.
type RunLogConfig struct {
	Dir         string
	DatabaseURL string `validate:"omitempty,url"`
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (PIM_URL, SHOPIFY_ACCESS_TOKEN, ...)
// 3. .env files
// 4. Config file (~/.pimsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".pimsync")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, pkgerrors.WrapParse("yaml", viper.ConfigFileUsed(), err)
		}
	}

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		PIM: PIMConfig{
			URL:        viper.GetString("pim.url"),
			Partitions: stringList("pim.partitions"),
			User:       viper.GetString("pim.user"),
			Password:   viper.GetString("pim.password"),
			Language:   viper.GetString("pim.language"),
		},
		Shopify: ShopifyConfig{
			Store:       viper.GetString("shopify.store"),
			AccessToken: viper.GetString("shopify.access_token"),
			APIVersion:  viper.GetString("shopify.api_version"),
		},
		Sync: SyncConfig{
			Vendor:         viper.GetString("sync.vendor"),
			MutationDelay:  viper.GetDuration("sync.mutation_delay"),
			SplitThreshold: viper.GetInt("sync.split_threshold"),
			Namespace:      viper.GetString("sync.metafield_namespace"),
			Categories:     viper.GetStringMapString("sync.categories"),
		},
		RunLog: RunLogConfig{
			Dir:         viper.GetString("runlog.dir"),
			DatabaseURL: viper.GetString("runlog.database_url"),
		},

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("pim.language", "en")
	viper.SetDefault("shopify.api_version", shopify.DefaultAPIVersion)
	viper.SetDefault("sync.mutation_delay", constants.DefaultMutationDelay)
	viper.SetDefault("sync.split_threshold", constants.SplitThreshold)
	viper.SetDefault("sync.metafield_namespace", pimsync.DefaultNamespace)
	viper.SetDefault("runlog.dir", "runs")
}

// stringList reads a list key that may also be given as a comma separated
// environment variable.
func stringList(key string) []string {
	var out []string
	for _, item := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks the settings the import engine needs. Commands that only
// read run logs never call it.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return pkgerrors.NewConfigError("config", "invalid configuration", err)
	}
	fe := fields[0]
	return &pkgerrors.ValidationError{
		Field:   configKey(fe.Namespace()),
		Value:   redact(fe),
		Message: fmt.Sprintf("failed %q check", fe.Tag()),
	}
}

var configKeys = map[string]string{
	"Config.PIM.URL":             "pim.url",
	"Config.PIM.Partitions":      "pim.partitions",
	"Config.Shopify.Store":       "shopify.store",
	"Config.Shopify.AccessToken": "shopify.access_token",
	"Config.Sync.MutationDelay":  "sync.mutation_delay",
	"Config.Sync.SplitThreshold": "sync.split_threshold",
	"Config.Sync.Namespace":      "sync.metafield_namespace",
	"Config.RunLog.DatabaseURL":  "runlog.database_url",
}

// configKey maps a struct namespace back to the key users set.
func configKey(namespace string) string {
	if key, ok := configKeys[namespace]; ok {
		return key
	}
	if i := strings.Index(namespace, "["); i > 0 {
		if key, ok := configKeys[namespace[:i]]; ok {
			return key
		}
	}
	return namespace
}

func redact(fe validator.FieldError) any {
	switch fe.Field() {
	case "AccessToken", "DatabaseURL":
		return "[redacted]"
	}
	return fe.Value()
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
