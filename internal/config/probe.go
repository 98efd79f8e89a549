package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/abgdnv/catalogdesk/pkg/config/configloader"
)

var _ configloader.Validator = (*ProbeConfig)(nil)

// ProbeConfig configures catalog-probe. A zero Interval checks once and exits.
type ProbeConfig struct {
	Log      config.LogConfig        `koanf:"log"`
	Client   config.GrpcClientConfig `koanf:"probe"`
	Interval time.Duration           `koanf:"probeinterval"`
}

func (c *ProbeConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Client.String())
	b.WriteString(fmt.Sprintf("  interval: %v\n", c.Interval))
	b.WriteString(c.Log.String())
	return b.String()
}

func (c *ProbeConfig) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if c.Interval < 0 {
		return fmt.Errorf("probeinterval must not be negative")
	}
	return nil
}
