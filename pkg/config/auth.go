package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	defaultAuthEmail    = "user@example.com"
	defaultAuthPassword = "password"
	defaultAuthIssuer   = "catalogdesk"
	defaultSessionTTL   = 8 * time.Hour
)

// AuthConfig configures the mock login gate and the session tokens it hands out.
type AuthConfig struct {
	Email      string        `koanf:"email"`
	Password   string        `koanf:"password"`
	Secret     string        `koanf:"secret"`
	Issuer     string        `koanf:"issuer"`
	SessionTTL time.Duration `koanf:"sessionttl"`
}

// String returns a string representation of the auth configuration with secrets masked.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  email: %s\n", c.Email))
	b.WriteString("  password: ****\n")
	b.WriteString("  secret: ****\n")
	b.WriteString(fmt.Sprintf("  issuer: %s\n", c.Issuer))
	b.WriteString(fmt.Sprintf("  sessionTTL: %s\n", c.SessionTTL))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.Email == "" {
		log.Println("Using default value for auth.email")
		c.Email = defaultAuthEmail
	}
	if c.Password == "" {
		log.Println("Using default value for auth.password")
		c.Password = defaultAuthPassword
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 bytes long")
	}
	if c.Issuer == "" {
		c.Issuer = defaultAuthIssuer
	}
	if c.SessionTTL <= 0 {
		log.Println("Using default value for auth.sessionTTL")
		c.SessionTTL = defaultSessionTTL
	}
	return nil
}
