// Package config holds the process-wide configuration, loaded once at
// startup and never mutated afterward (spec.md §9 "global mutable state").
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServiceConfig is the per-service database/migration configuration, kept
// from the teacher (config/config.go) unchanged in shape.
type ServiceConfig struct {
	Name         string `env:"NAME"`
	MigrationDir string `env:"MIGRATION_DIR"`
	DatabaseDSN  string `env:"DATABASE_DSN"`
}

// Topics names every partitioned log topic in spec.md §6, plus the two
// replica topics added in SPEC_FULL.md §12.
type Topics struct {
	PaymentRequest             string `env:"PAYMENT_REQUEST_TOPIC" envDefault:"payment-request"`
	PaymentResponse            string `env:"PAYMENT_RESPONSE_TOPIC" envDefault:"payment-response"`
	RestaurantApprovalRequest  string `env:"RESTAURANT_APPROVAL_REQUEST_TOPIC" envDefault:"restaurant-approval-request"`
	RestaurantApprovalResponse string `env:"RESTAURANT_APPROVAL_RESPONSE_TOPIC" envDefault:"restaurant-approval-response"`
	Customer                   string `env:"CUSTOMER_TOPIC" envDefault:"customer"`
	Restaurant                 string `env:"RESTAURANT_TOPIC" envDefault:"restaurant"`
}

// Outbox holds the sweeper tuning knobs from spec.md §4.3.
type Outbox struct {
	// PublishInterval is how often the publish sweeper ticks.
	PublishInterval time.Duration `env:"OUTBOX_PUBLISH_INTERVAL" envDefault:"500ms"`
	// CleanupInterval is how often the cleanup sweeper ticks.
	CleanupInterval time.Duration `env:"OUTBOX_CLEANUP_INTERVAL" envDefault:"1m"`
	// Retention is how long a COMPLETED row survives before cleanup deletes it.
	Retention time.Duration `env:"OUTBOX_RETENTION" envDefault:"24h"`
	// BatchSize bounds how many pending rows one sweep tick publishes.
	BatchSize int `env:"OUTBOX_BATCH_SIZE" envDefault:"10"`
}

// Config is the full process configuration.
type Config struct {
	OrderConfig      ServiceConfig
	PaymentConfig    ServiceConfig
	RestaurantConfig ServiceConfig
	CustomerConfig   ServiceConfig

	KafkaHost string `env:"KAFKA_HOST" envDefault:"localhost:29092"`
	// ConsumerPartitionWorkers is loaded from the environment but not read
	// by any command: kafka.NewConsumer always opens one partition consumer
	// per partition the broker reports, and each topic's messages are
	// handled by a single goroutine whatever this is set to.
	ConsumerPartitionWorkers int `env:"CONSUMER_PARTITION_WORKERS" envDefault:"0"`

	Topics Topics
	Outbox Outbox
}

// Default mirrors the teacher's DefaultConfig: sane local-dev values used
// as the starting point before env vars are layered on top.
var Default = Config{
	OrderConfig: ServiceConfig{
		Name:         "order",
		MigrationDir: "migrations/order",
		DatabaseDSN:  "root:root@tcp(localhost:3306)/saga_order?parseTime=true",
	},
	PaymentConfig: ServiceConfig{
		Name:         "payment",
		MigrationDir: "migrations/payment",
		DatabaseDSN:  "root:root@tcp(localhost:3306)/saga_payment?parseTime=true",
	},
	RestaurantConfig: ServiceConfig{
		Name:         "restaurant",
		MigrationDir: "migrations/restaurant",
		DatabaseDSN:  "root:root@tcp(localhost:3306)/saga_restaurant?parseTime=true",
	},
	CustomerConfig: ServiceConfig{
		Name:         "customer",
		MigrationDir: "migrations/customer",
		DatabaseDSN:  "root:root@tcp(localhost:3306)/saga_customer?parseTime=true",
	},
	KafkaHost: "localhost:29092",
	Topics: Topics{
		PaymentRequest:             "payment-request",
		PaymentResponse:            "payment-response",
		RestaurantApprovalRequest:  "restaurant-approval-request",
		RestaurantApprovalResponse: "restaurant-approval-response",
		Customer:                   "customer",
		Restaurant:                 "restaurant",
	},
	Outbox: Outbox{
		PublishInterval: 500 * time.Millisecond,
		CleanupInterval: time.Minute,
		Retention:       24 * time.Hour,
		BatchSize:       10,
	},
}

// Load starts from Default and overlays any environment variables that are
// set, per the caarlos0/env struct tags above.
func Load() (Config, error) {
	cfg := Default
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// MigrationAndDatabase resolves a service name to its migration directory
// and DSN, kept from the teacher's cmd/main.go helper.
func (c Config) MigrationAndDatabase(service string) (string, string, error) {
	switch service {
	case c.OrderConfig.Name:
		return c.OrderConfig.MigrationDir, c.OrderConfig.DatabaseDSN, nil
	case c.RestaurantConfig.Name:
		return c.RestaurantConfig.MigrationDir, c.RestaurantConfig.DatabaseDSN, nil
	case c.PaymentConfig.Name:
		return c.PaymentConfig.MigrationDir, c.PaymentConfig.DatabaseDSN, nil
	case c.CustomerConfig.Name:
		return c.CustomerConfig.MigrationDir, c.CustomerConfig.DatabaseDSN, nil
	default:
		return "", "", fmt.Errorf("config: unknown service %q", service)
	}
}
