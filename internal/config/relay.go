package config

import "time"

type Relay struct {
	BatchSize uint32        `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	Interval  time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`
	// Retention is how long relayed messages are kept before being purged.
	// Zero disables purging.
	Retention     time.Duration `env:"RELAY_RETENTION" envDefault:"168h"`
	PurgeInterval time.Duration `env:"RELAY_PURGE_INTERVAL" envDefault:"1h"`
}
