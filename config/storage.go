package config

import (
	"fmt"
	"strings"
	"time"
)

// StorageDriver selects where the session is persisted.
type StorageDriver string

const (
	// StorageMemory keeps the session in process memory; it does not survive restarts.
	StorageMemory StorageDriver = "memory"
	// StorageRedis persists to Redis.
	StorageRedis StorageDriver = "redis"
	// StoragePostgres persists to the session_kv table.
	StoragePostgres StorageDriver = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageDriver.
func (d *StorageDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*d = StorageDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageDriver: %q (valid options: memory, redis, postgres)", v)
	}
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	Driver    StorageDriver `env:"STORAGE_DRIVER"     envDefault:"memory"`
	KeyPrefix string        `env:"STORAGE_KEY_PREFIX" envDefault:"eventhub:session:"`
	// TTL bounds how long Redis keeps the records; zero keeps them until logout.
	TTL time.Duration `env:"STORAGE_TTL" envDefault:"0"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.Driver == "" {
		s.Driver = StorageMemory
	}
	if s.KeyPrefix = strings.TrimSpace(s.KeyPrefix); s.KeyPrefix == "" {
		s.KeyPrefix = "eventhub:session:"
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
}
