package config

import (
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"spfiles/logging"
)

// DefaultURLPattern extracts (server_url, site_name) from an absolute
// SharePoint document or folder URL. Overridable via SP_URL_PATTERN; any
// replacement must keep both named groups.
const DefaultURLPattern = `^(?P<server_url>https?://[^/]+)/sites/(?P<site_name>[^/]+)`

// AppConfig holds the process-wide SharePoint settings used as fallback
// inputs for URL routing and credential resolution.
type AppConfig struct {
	Site         string
	ServerURL    string
	ClientID     string
	ClientSecret string
	CredFilePath string
	URLPattern   string
	Logging      *logging.Config
}

// LoadEnvironment loads a .env file when present. A missing file is not an
// error; values already present in the environment win.
func LoadEnvironment() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// LoadAppConfigFromEnv loads complete application configuration from environment variables.
func LoadAppConfigFromEnv() *AppConfig {
	return &AppConfig{
		Site:         getEnvWithDefault("SP_SITE", ""),
		ServerURL:    getEnvWithDefault("SP_SERVER_URL", ""),
		ClientID:     getEnvWithDefault("SP_CLIENT_ID", ""),
		ClientSecret: getEnvWithDefault("SP_CLIENT_SECRET", ""),
		CredFilePath: getEnvWithDefault("SP_CRED_FILE", ""),
		URLPattern:   getEnvWithDefault("SP_URL_PATTERN", DefaultURLPattern),
		Logging:      LoadLoggingConfigFromEnv(),
	}
}

// LoadLoggingConfigFromEnv loads logging configuration from environment variables.
func LoadLoggingConfigFromEnv() *logging.Config {
	return &logging.Config{
		Level:  getEnvWithDefault("LOG_LEVEL", "info"),
		Format: getEnvWithDefault("LOG_FORMAT", "json"),
		Output: getEnvWithDefault("LOG_OUTPUT", "stdout"),
	}
}

var serverURLFormat = regexp.MustCompile(`^https?://`)

// Validate validates the configuration.
func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site, validation.Required),
		validation.Field(&c.ServerURL, validation.Required, validation.Match(serverURLFormat)),
		validation.Field(&c.URLPattern, validation.Required, validation.By(compilablePattern)),
	)
}

func compilablePattern(value interface{}) error {
	pattern, _ := value.(string)
	_, err := regexp.Compile(pattern)
	return err
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
