package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_KEEP_ARTIFACTS leaves rendered PNGs on disk for inspection
	// instead of the test temp dir cleaning them up.
	KeepArtifacts bool `envconfig:"E2E_KEEP_ARTIFACTS" default:"false"`
	// E2E_COLOURS enables colorized progress output
	Colours bool   `envconfig:"E2E_COLOURS" default:"true"`
	QRLevel string `envconfig:"E2E_QR_LEVEL" default:"l"`
	QRSize  int    `envconfig:"E2E_QR_SIZE" default:"768"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
