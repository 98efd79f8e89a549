package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"poolsize"`
	MinIdleConns int           `koanf:"minidleconns"`
	DialTimeout  time.Duration `koanf:"dialtimeout"`
	ReadTimeout  time.Duration `koanf:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
}

// String returns a string representation of the Redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  poolSize: %d\n", c.PoolSize))
	b.WriteString(fmt.Sprintf("  dialTimeout: %s\n", c.DialTimeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("redis URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return fmt.Errorf("redis URL must start with 'redis://': %s", MaskURL(c.URL))
	}
	if c.PoolSize <= 0 {
		log.Println("Using default value for redis.poolSize")
		c.PoolSize = 10
	}
	if c.DialTimeout <= 0 {
		log.Println("Using default value for redis.dialTimeout")
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	return nil
}
