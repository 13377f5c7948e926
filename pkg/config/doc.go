// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (for .env files) and
// github.com/caarlos0/env/v11 (for struct tags). Load caches the parsed value
// per struct type, Parse does not. Every livenotify component that needs
// configuration exposes a Config struct with env tags, e.g. session.Config or
// redis.Config, and a NewFromConfig constructor.
package config
