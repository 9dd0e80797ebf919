package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tourbook/internal/flagx"
	"github.com/dmitrijs2005/tourbook/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "10m" or "90d" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from a zero value: only keys
// present in the file overwrite the current Config.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	CookieValidityDuration      *timex.Duration `json:"cookie_validity_duration"`
	ResetTokenValidityDuration  *timex.Duration `json:"reset_token_validity_duration"`
	RateLimitWindow             *timex.Duration `json:"rate_limit_window"`
	RateLimitMax                *int            `json:"rate_limit_max"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	HashWorkers                 *int            `json:"hash_workers"`
	Environment                 *string         `json:"environment"`
	TrustProxy                  *bool           `json:"trust_proxy"`
	AMQPURL                     *string         `json:"amqp_url"`
	MailExchange                *string         `json:"mail_exchange"`
	PublicURL                   *string         `json:"public_url"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config flag, or the CONFIG
// environment variable. If none is set, no JSON file is loaded. If the
// file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.CookieValidityDuration != nil {
		config.CookieValidityDuration = c.CookieValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration != nil {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	if c.RateLimitWindow != nil {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	setInt(&config.RateLimitMax, c.RateLimitMax)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.HashWorkers, c.HashWorkers)
	setString(&config.Environment, c.Environment)
	if c.TrustProxy != nil {
		config.TrustProxy = *c.TrustProxy
	}
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.MailExchange, c.MailExchange)
	setString(&config.PublicURL, c.PublicURL)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
