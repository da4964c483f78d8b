package config

type Redis struct {
	// Addr is optional; the category cache is disabled when it is empty.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}
