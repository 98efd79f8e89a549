package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	defaultSubscriberSubject  = "catalog.products.>"
	defaultSubscriberConsumer = "catalog-feed"
	defaultSubscriberBatch    = 10
	defaultSubscriberTimeout  = 5 * time.Second
	defaultSubscriberInterval = time.Second
	defaultSubscriberWorkers  = 1
)

type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

// String returns a string representation of the NATS Subscriber configuration.
func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d\n", c.Batch))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  interval: %s\n", c.Interval))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	if c.Stream == "" {
		log.Println("Using default value for subscriber.stream")
		c.Stream = defaultNATSStream
	}
	if c.Subject == "" {
		log.Println("Using default value for subscriber.subject")
		c.Subject = defaultSubscriberSubject
	}
	if c.Consumer == "" {
		log.Println("Using default value for subscriber.consumer")
		c.Consumer = defaultSubscriberConsumer
	}
	if c.Batch == 0 {
		c.Batch = defaultSubscriberBatch
	}
	if c.Timeout == 0 {
		c.Timeout = defaultSubscriberTimeout
	}
	if c.Interval == 0 {
		c.Interval = defaultSubscriberInterval
	}
	if c.Workers == 0 {
		c.Workers = defaultSubscriberWorkers
	}
	if c.Batch < 0 {
		return fmt.Errorf("SubscriberConfig: batch must be greater than zero")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("SubscriberConfig: timeout must be greater than zero")
	}
	if c.Interval < 0 {
		return fmt.Errorf("SubscriberConfig: interval must be greater than zero")
	}
	if c.Workers < 0 {
		return fmt.Errorf("SubscriberConfig: workers must be greater than zero")
	}
	return nil
}
