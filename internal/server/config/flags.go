package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-l int      requests allowed per rate-limit window
//	-e string   environment ("development" or "production")
//	-m string   AMQP URL for mail jobs
//	-u string   public base URL
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The token validity flag is an integer number of minutes and only
//     applies when given explicitly.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-l", "-e", "-m", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.IntVar(&config.RateLimitMax, "l", config.RateLimitMax, "requests per rate limit window")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development|production)")
	fs.StringVar(&config.AMQPURL, "m", config.AMQPURL, "AMQP URL for mail jobs")
	fs.StringVar(&config.PublicURL, "u", config.PublicURL, "public base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// an unset -t must not truncate a finer duration from env or JSON
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}
