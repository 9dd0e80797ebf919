package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/timex"
	"github.com/joho/godotenv"
)

// parseEnv overlays values from the process environment and from the
// dotenv file at path. Process variables take precedence over the file;
// a missing file is ignored.
//
// Recognised variables:
//
//	HTTP_ADDR, DATABASE_DSN, JWT_SECRET, JWT_EXPIRES_IN, JWT_COOKIE_EXPIRES_IN,
//	RESET_TOKEN_EXPIRES_IN, RATE_LIMIT_WINDOW, RATE_LIMIT_MAX, BCRYPT_COST,
//	HASH_WORKERS, APP_ENV, TRUST_PROXY, AMQP_URL, MAIL_EXCHANGE, PUBLIC_URL,
//	LOG_LEVEL
//
// Durations accept Go syntax ("90m") or whole days ("90d"). Malformed
// values panic, like a malformed JSON file does.
func parseEnv(config *Config, path string) {
	file := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(errors.New("config: " + key + " must be an integer"))
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := timex.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				panic(errors.New("config: " + key + " must be a boolean"))
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("JWT_SECRET", &config.SecretKey)
	dur("JWT_EXPIRES_IN", &config.AccessTokenValidityDuration)
	dur("JWT_COOKIE_EXPIRES_IN", &config.CookieValidityDuration)
	dur("RESET_TOKEN_EXPIRES_IN", &config.ResetTokenValidityDuration)
	dur("RATE_LIMIT_WINDOW", &config.RateLimitWindow)
	num("RATE_LIMIT_MAX", &config.RateLimitMax)
	num("BCRYPT_COST", &config.BcryptCost)
	num("HASH_WORKERS", &config.HashWorkers)
	str("APP_ENV", &config.Environment)
	boolean("TRUST_PROXY", &config.TrustProxy)
	str("AMQP_URL", &config.AMQPURL)
	str("MAIL_EXCHANGE", &config.MailExchange)
	str("PUBLIC_URL", &config.PublicURL)
	str("LOG_LEVEL", &config.LogLevel)
}
