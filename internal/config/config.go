// Package config loads gateway configuration from config files and
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all gateway configuration.
type Config struct {
	// HTTP server settings
	HTTPAddress string

	// Sync backend
	BackendAPIBaseURL string
	// OAuthRedirectOrigin is the externally reachable origin the backend
	// redirects to after the QuickBooks consent screen.
	OAuthRedirectOrigin string

	// QuickBooks direct query access
	QBAccessToken string
	QBCompanyID   string
	QBProduction  bool

	// Make.com
	MakeAPIBaseURL string

	// Local n8n engine
	N8NAPIToken string
	N8NAPIKey   string
	N8NPort     int
	N8NDataDir  string
}

// N8NBaseURL is the local engine's base URL derived from the configured port.
func (c *Config) N8NBaseURL() string {
	return fmt.Sprintf("http://localhost:%d", c.N8NPort)
}

// EngineToken returns whichever n8n credential is configured, preferring the
// session token over the static API key.
func (c *Config) EngineToken() string {
	if c.N8NAPIToken != "" {
		return c.N8NAPIToken
	}
	return c.N8NAPIKey
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":         "HTTP_ADDRESS",
		"BackendAPIBaseURL":   "BACKEND_API_BASE_URL",
		"OAuthRedirectOrigin": "OAUTH_REDIRECT_ORIGIN",
		"QBAccessToken":       "QB_ACCESS_TOKEN",
		"QBCompanyID":         "QB_COMPANY_ID",
		"QBProduction":        "QB_PRODUCTION",
		"MakeAPIBaseURL":      "MAKE_API_BASE_URL",
		"N8NAPIToken":         "N8N_API_TOKEN",
		"N8NAPIKey":           "N8N_API_KEY",
		"N8NPort":             "N8N_PORT",
		"N8NDataDir":          "N8N_DATA_DIR",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("gateway_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.elas")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().Msgf("Config loaded: HTTPAddress=%s, BackendAPIBaseURL=%s, N8NPort=%d",
		config.HTTPAddress, config.BackendAPIBaseURL, config.N8NPort)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8090")
	v.SetDefault("BackendAPIBaseURL", "http://localhost:8000/api/v1")
	v.SetDefault("OAuthRedirectOrigin", "http://localhost:8090")
	v.SetDefault("MakeAPIBaseURL", "https://api.make.com")
	v.SetDefault("N8NPort", 5678)
	v.SetDefault("QBProduction", false)
}

// validateConfig validates the required configuration fields.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.BackendAPIBaseURL == "" {
		missingVars = append(missingVars, "BACKEND_API_BASE_URL")
	}

	if config.HTTPAddress == "" {
		missingVars = append(missingVars, "HTTP_ADDRESS")
	}

	if config.N8NPort <= 0 || config.N8NPort > 65535 {
		return fmt.Errorf("N8N_PORT must be a valid TCP port, got %d", config.N8NPort)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return nil
}
