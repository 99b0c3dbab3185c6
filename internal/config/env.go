package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the process environment overrides.
type Env struct {
	PayuBin   string `env:"PERTURB_PAYU_BIN"   envDefault:"payu"`
	QstatBin  string `env:"PERTURB_QSTAT_BIN"  envDefault:"qstat"`
	GitBin    string `env:"PERTURB_GIT_BIN"    envDefault:"git"`
	LogFormat string `env:"PERTURB_LOG_FORMAT" envDefault:"text"`
}

// LoadEnv reads Env from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}

	return e, nil
}
