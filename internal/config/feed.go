package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/abgdnv/catalogdesk/pkg/config/configloader"
)

var _ configloader.Validator = (*FeedConfig)(nil)

// FeedConfig configures the catalog-feed consumer.
type FeedConfig struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *FeedConfig) String() string {
	var b strings.Builder
	b.WriteString(c.NATS.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks the sections used by the consumer. NATS is always on.
func (c *FeedConfig) Validate() error {
	c.NATS.Enabled = true
	if c.Subscriber.Stream == "" {
		c.Subscriber.Stream = c.NATS.Stream
	}
	validators := []struct {
		name string
		v    configloader.Validator
	}{
		{"log", &c.Log},
		{"pprof", &c.PProf},
		{"nats", &c.NATS},
		{"subscriber", &c.Subscriber},
		{"shutdown", &c.Shutdown},
	}
	for _, s := range validators {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
