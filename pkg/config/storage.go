package config

import (
	"fmt"
	"log"
	"strings"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

const (
	defaultStorageKey = "products"
	defaultStorageDir = "./data"
)

// StorageConfig selects the durable slot that backs the record store.
type StorageConfig struct {
	Driver   string               `koanf:"driver"`
	Key      string               `koanf:"key"`
	Dir      string               `koanf:"dir"`
	Redis    RedisConfig          `koanf:"redis"`
	Database DatabaseConfig       `koanf:"database"`
	Breaker  CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  key: %s\n", c.Key))
	switch c.Driver {
	case StorageDriverFile:
		b.WriteString(fmt.Sprintf("  dir: %s\n", c.Dir))
	case StorageDriverRedis:
		b.WriteString(c.Redis.String())
	case StorageDriverPostgres:
		b.WriteString(c.Database.String())
	}
	b.WriteString(c.Breaker.String())
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.Key == "" {
		log.Println("Using default value for storage.key")
		c.Key = defaultStorageKey
	}
	switch c.Driver {
	case "":
		log.Println("Using default value for storage.driver")
		c.Driver = StorageDriverFile
		fallthrough
	case StorageDriverFile:
		if c.Dir == "" {
			log.Println("Using default value for storage.dir")
			c.Dir = defaultStorageDir
		}
	case StorageDriverMemory:
	case StorageDriverRedis:
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	case StorageDriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Driver)
	}
	return c.Breaker.Validate()
}
