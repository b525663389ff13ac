// Package config loads statickit project settings using Viper, from a
// .statickit.yml file, STATICKIT_ environment variables and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/schema"
)

// EnvPrefix prefixes every environment override, e.g. STATICKIT_DEV_PORT.
const EnvPrefix = "STATICKIT"

// Config holds project settings. Paths are relative to the working
// directory.
type Config struct {
	BlocksDir     string    `json:"blocksDir" yaml:"blocks_dir" mapstructure:"blocks_dir" validate:"required"`
	PagesDir      string    `json:"pagesDir" yaml:"pages_dir" mapstructure:"pages_dir" validate:"required"`
	TemplatesDir  string    `json:"templatesDir" yaml:"templates_dir" mapstructure:"templates_dir" validate:"required"`
	PublicDir     string    `json:"publicDir" yaml:"public_dir" mapstructure:"public_dir"`
	OutDir        string    `json:"outDir" yaml:"out_dir" mapstructure:"out_dir" validate:"required"`
	PublicPath    string    `json:"publicPath" yaml:"public_path" mapstructure:"public_path" validate:"required,startswith=/"`
	DevPort       int       `json:"devPort" yaml:"dev_port" mapstructure:"dev_port" validate:"min=0,max=65535"`
	GenDir        string    `json:"genDir" yaml:"gen_dir" mapstructure:"gen_dir" validate:"required"`
	GenPackage    string    `json:"genPackage" yaml:"gen_package" mapstructure:"gen_package" validate:"required"`
	RuntimeImport string    `json:"runtimeImport" yaml:"runtime_import" mapstructure:"runtime_import" validate:"required"`
	CacheBust     string    `json:"cacheBust" yaml:"cache_bust" mapstructure:"cache_bust"`
	Log           LogConfig `json:"log" yaml:"log" mapstructure:"log"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		BlocksDir:     "blocks",
		PagesDir:      "site/pages",
		TemplatesDir:  "site/templates",
		PublicDir:     "public",
		OutDir:        "dist",
		PublicPath:    "/public",
		DevPort:       3000,
		GenDir:        "gen",
		GenPackage:    "gen",
		RuntimeImport: "github.com/conneroisu/statickit/pkg/block",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every default with v so environment variables can
// override keys that no config file sets.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("blocks_dir", d.BlocksDir)
	v.SetDefault("pages_dir", d.PagesDir)
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("public_dir", d.PublicDir)
	v.SetDefault("out_dir", d.OutDir)
	v.SetDefault("public_path", d.PublicPath)
	v.SetDefault("dev_port", d.DevPort)
	v.SetDefault("gen_dir", d.GenDir)
	v.SetDefault("gen_package", d.GenPackage)
	v.SetDefault("runtime_import", d.RuntimeImport)
	v.SetDefault("cache_bust", d.CacheBust)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Init points v at the config file and enables STATICKIT_ environment
// overrides. file wins over STATICKIT_CONFIG_FILE, which wins over
// .statickit.yml in the working directory. A missing default file is not
// an error.
func Init(v *viper.Viper, file string, getenv func(string) string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := true
	switch {
	case file != "":
		v.SetConfigFile(file)
	case getenv(EnvPrefix+"_CONFIG_FILE") != "":
		v.SetConfigFile(getenv(EnvPrefix + "_CONFIG_FILE"))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".statickit")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return nil
		}

		return kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "read config file").
			WithCause(err).
			WithLocation(v.ConfigFileUsed(), 0, 0)
	}

	return nil
}

// Load decodes the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes v on top of Defaults and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "decode config").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and rejects directories that escape
// the project.
func (c *Config) Validate() error {
	issues := schema.Check(c)
	for _, p := range []struct{ key, path string }{
		{"blocksDir", c.BlocksDir},
		{"pagesDir", c.PagesDir},
		{"templatesDir", c.TemplatesDir},
		{"publicDir", c.PublicDir},
		{"outDir", c.OutDir},
		{"genDir", c.GenDir},
	} {
		if p.path == "" {
			continue
		}
		if err := validatePath(p.path); err != nil {
			issues = append(issues, schema.Issue{Path: p.key, Message: err.Error()})
		}
	}
	if len(issues) == 0 {
		return nil
	}

	return kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "invalid configuration: "+issues.Error()).
		WithCause(issues)
}

// validatePath rejects traversal and shell metacharacters.
func validatePath(path string) error {
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q leaves the project directory", path)
	}
	for _, char := range []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"} {
		if strings.Contains(clean, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
