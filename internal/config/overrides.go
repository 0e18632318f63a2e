package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// LoadOverrides parses environment overrides into an Overrides struct.
func LoadOverrides() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Overrides{}, fmt.Errorf("parse environment overrides: %w", err)
	}
	return o, nil
}
