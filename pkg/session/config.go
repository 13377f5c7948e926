package session

import (
	"time"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

// Config holds the lifecycle settings of a Controller.
type Config struct {
	// StoreCapacity is the number of notifications kept visible.
	StoreCapacity int `env:"NOTIFY_STORE_CAPACITY" envDefault:"10"`

	// HydrateLimit is the page size fetched at session start.
	HydrateLimit int `env:"NOTIFY_HYDRATE_LIMIT" envDefault:"10"`

	// RetryAttempts is the number of connect attempts per start (at least 1).
	RetryAttempts int           `env:"NOTIFY_RETRY_ATTEMPTS" envDefault:"1"`
	RetryInterval time.Duration `env:"NOTIFY_RETRY_INTERVAL" envDefault:"2s"`

	// ConnectTimeout bounds a single connect attempt.
	ConnectTimeout time.Duration `env:"NOTIFY_CONNECT_TIMEOUT" envDefault:"10s"`

	// ArrivalBuffer is the per-subscriber buffer of the arrivals stream.
	ArrivalBuffer int `env:"NOTIFY_ARRIVAL_BUFFER" envDefault:"16"`
}

// DefaultConfig returns the defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		StoreCapacity:  notifications.DefaultCapacity,
		HydrateLimit:   notifications.DefaultCapacity,
		RetryAttempts:  1,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 10 * time.Second,
		ArrivalBuffer:  16,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StoreCapacity <= 0 {
		c.StoreCapacity = def.StoreCapacity
	}
	if c.HydrateLimit <= 0 {
		c.HydrateLimit = c.StoreCapacity
	}
	c.RetryAttempts = max(c.RetryAttempts, 1)
	if c.RetryInterval < 0 {
		c.RetryInterval = 0
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ArrivalBuffer <= 0 {
		c.ArrivalBuffer = def.ArrivalBuffer
	}
	return c
}
