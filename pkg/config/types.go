package config

import (
	"errors"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
)

const (
	KeyRoot         = "root"
	KeyConfig       = "config"
	KeySources      = "sources"
	KeyIgnoreConfig = "ignore_config"

	EnvPrefix = "FPKG"
)

var ErrInvalidSource = errors.New("invalid repository source")

// DefaultSources are used when no configuration
// names any repositories.
var DefaultSources = []v1.Repository{
	{Name: "felis_core", URL: "https://iohio.xyz/data/pub/felis/core"},
}

type Config struct {
	Root    string
	Sources []v1.Repository
	// File is the configuration file that was read,
	// if any.
	File string
}
