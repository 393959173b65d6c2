package app

import (
	"github.com/uniedit/paygate/internal/infra/config"
)

// LoadConfig loads application configuration. An empty path searches the
// default locations.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
