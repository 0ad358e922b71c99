// Package config loads typed configuration structs from environment
// variables, with an optional .env file for local development.
//
// Configuration structs declare their environment bindings with `env` tags:
//
//	type AuthConfig struct {
//		MagicLinkTTL   time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`
//		InternalDomain string        `env:"INTERNAL_EMAIL_DOMAIN,required"`
//	}
//
//	var cfg AuthConfig
//	config.MustLoad(&cfg)
//
// The .env file is read at most once per process and never overrides
// variables already present in the environment.
package config
