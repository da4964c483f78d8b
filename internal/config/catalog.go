package config

import (
	"fmt"
	"strings"
	"time"
)

type Catalog struct {
	PriceMode        PriceMode     `env:"CATALOG_PRICE_MODE" envDefault:"APPEND"`
	DefaultCurrency  string        `env:"CATALOG_DEFAULT_CURRENCY" envDefault:"KZT"`
	SlugMaxAttempts  int           `env:"CATALOG_SLUG_MAX_ATTEMPTS" envDefault:"3"`
	DefaultPageSize  int           `env:"CATALOG_DEFAULT_PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int           `env:"CATALOG_MAX_PAGE_SIZE" envDefault:"100"`
	CategoryCacheTTL time.Duration `env:"CATALOG_CATEGORY_CACHE_TTL" envDefault:"5m"`
}

// PriceMode selects how setting a price affects existing observations.
type PriceMode uint8

const (
	// PriceModeAppend records every price as a new observation.
	PriceModeAppend PriceMode = iota
	// PriceModeOverwrite updates the latest observation in place.
	PriceModeOverwrite
)

func (m PriceMode) String() string {
	return []string{"APPEND", "OVERWRITE"}[m]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *PriceMode) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "APPEND":
		*m = PriceModeAppend
	case "OVERWRITE":
		*m = PriceModeOverwrite
	default:
		return fmt.Errorf("unknown price mode: %s", text)
	}
	return nil
}

func (m PriceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
