package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/fileutil"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/drone/envsubst"
	"github.com/go-logr/logr"
	"github.com/spf13/viper"
)

// NewViper creates a viper instance that reads overrides
// from FPKG_ prefixed environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyRoot, "/")
	v.SetDefault(KeyIgnoreConfig, false)
	return v
}

// Load resolves the configuration. The configuration file defaults
// to etc/fpkg/config.json underneath the root and is skipped when
// ignore_config is set. Flags and environment variables bound to v
// take precedence over the file.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	log := logr.FromContextOrDiscard(ctx)

	cfg := &Config{}
	path := v.GetString(KeyConfig)
	if path == "" {
		path = rootfs.NewLayout(v.GetString(KeyRoot)).Config()
	}
	switch {
	case v.GetBool(KeyIgnoreConfig):
		log.V(1).Info("ignoring configuration file")
	case !fileutil.IsRegular(path) && v.GetString(KeyConfig) == "":
		log.V(1).Info("no configuration file found, using defaults", "path", path)
	default:
		log.V(1).Info("reading configuration file", "path", path)
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			log.Error(err, "failed to read configuration file", "path", path)
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		cfg.File = path
	}

	cfg.Root = rootfs.NewLayout(v.GetString(KeyRoot)).Root

	sources, err := parseSources(v.Get(KeySources))
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		sources = DefaultSources
	}
	cfg.Sources = sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.V(2).Info("loaded configuration", "root", cfg.Root, "sources", cfg.Sources)
	return cfg, nil
}

// parseSources accepts both ["name", "url"] pairs
// and {"name", "url"} objects.
func parseSources(raw any) ([]v1.Repository, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: sources must be a list, got %T", ErrInvalidSource, raw)
	}
	out := make([]v1.Repository, 0, len(items))
	for i, item := range items {
		var repo v1.Repository
		switch val := item.(type) {
		case []any:
			if len(val) != 2 {
				return nil, fmt.Errorf("%w: source %d must be a [name, url] pair", ErrInvalidSource, i)
			}
			repo.Name = fmt.Sprint(val[0])
			repo.URL = fmt.Sprint(val[1])
		case map[string]any:
			repo.Name, _ = val["name"].(string)
			repo.URL, _ = val["url"].(string)
		default:
			return nil, fmt.Errorf("%w: source %d has unexpected type %T", ErrInvalidSource, i, item)
		}
		url, err := envsubst.EvalEnv(repo.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: expanding url of %s: %w", ErrInvalidSource, repo.Name, err)
		}
		repo.URL = strings.TrimSuffix(url, "/")
		out = append(out, repo)
	}
	return out, nil
}

func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("%w: name and url are required: %+v", ErrInvalidSource, s)
		}
		if strings.ContainsAny(s.Name, `/\`) || filepath.Base(s.Name) != s.Name || s.Name == "." || s.Name == ".." {
			return fmt.Errorf("%w: name must be a plain directory name: %s", ErrInvalidSource, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate repository %s", ErrInvalidSource, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
