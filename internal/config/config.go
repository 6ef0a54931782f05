// Package config resolves settings from flags, environment, and an optional
// YAML config file into a validated Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dshills/studydiary/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. STUDYDIARY_DATA_DIR.
const EnvPrefix = "STUDYDIARY"

// ConfigName is the config file searched for in . and $HOME.
const ConfigName = ".studydiary"

// Defaults.
const (
	DefaultDataDir    = "data"
	DefaultReportsDir = "reports"
	DefaultSheetsDir  = "questionnaires"
	DefaultExportDir  = "exports"
	DefaultDBFile     = "studydiary.db"
)

// RawInput holds the unvalidated values from all sources.
type RawInput struct {
	DataDir    string `mapstructure:"data-dir"`
	Backend    string `mapstructure:"backend"`
	DBConnect  string `mapstructure:"db-connect"`
	Rules      string `mapstructure:"rules"`
	Questions  string `mapstructure:"questions"`
	Model      string `mapstructure:"model"`
	ReportsDir string `mapstructure:"reports-dir"`
	SheetsDir  string `mapstructure:"sheets-dir"`
	ExportDir  string `mapstructure:"export-dir"`
	PDF        bool   `mapstructure:"pdf"`
	Pandoc     string `mapstructure:"pandoc"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`
	Verbose    bool   `mapstructure:"verbose"`
	AI         bool   `mapstructure:"ai"`
}

// Config is the resolved configuration.
type Config struct {
	DataDir    string
	Backend    store.Backend
	DBConnect  string
	RulesPath  string
	Questions  string
	Model      string
	ReportsDir string
	SheetsDir  string
	ExportDir  string
	PDF        bool
	Pandoc     string
	Color      bool
	Width      int
	Verbose    bool
	AI         bool
	// File is the config file that was read, if any.
	File string
}

// Init points v at the config file, the environment, and the defaults.
func Init(v *viper.Viper) {
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data-dir", DefaultDataDir)
	v.SetDefault("backend", string(store.SQLite))
	v.SetDefault("db-connect", "")
	v.SetDefault("rules", "")
	v.SetDefault("questions", "")
	v.SetDefault("model", "")
	v.SetDefault("reports-dir", DefaultReportsDir)
	v.SetDefault("sheets-dir", DefaultSheetsDir)
	v.SetDefault("export-dir", DefaultExportDir)
	v.SetDefault("pdf", false)
	v.SetDefault("pandoc", "pandoc")
	v.SetDefault("color", "auto")
	v.SetDefault("width", 0)
	v.SetDefault("verbose", false)
	v.SetDefault("ai", true)
}

// Load reads the config file if present, then unmarshals and resolves.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	var in RawInput
	if err := v.Unmarshal(&in); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg, err := Resolve(in)
	if err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// Resolve validates raw input and fills derived values.
func Resolve(in RawInput) (*Config, error) {
	backend, err := store.ParseBackend(in.Backend)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := &Config{
		DataDir:    orDefault(in.DataDir, DefaultDataDir),
		Backend:    backend,
		DBConnect:  strings.TrimSpace(in.DBConnect),
		RulesPath:  strings.TrimSpace(in.Rules),
		Questions:  strings.TrimSpace(in.Questions),
		Model:      strings.TrimSpace(in.Model),
		ReportsDir: orDefault(in.ReportsDir, DefaultReportsDir),
		SheetsDir:  orDefault(in.SheetsDir, DefaultSheetsDir),
		ExportDir:  orDefault(in.ExportDir, DefaultExportDir),
		PDF:        in.PDF,
		Pandoc:     orDefault(in.Pandoc, "pandoc"),
		Width:      in.Width,
		Verbose:    in.Verbose,
		AI:         in.AI,
	}
	if cfg.Width < 0 {
		return nil, fmt.Errorf("config: width must not be negative, got %d", cfg.Width)
	}

	switch backend {
	case store.SQLite:
		if cfg.DBConnect == "" {
			cfg.DBConnect = filepath.Join(cfg.DataDir, DefaultDBFile)
		}
	default:
		if cfg.DBConnect == "" {
			return nil, fmt.Errorf("config: db-connect is required for the %s backend", backend)
		}
	}

	switch strings.ToLower(strings.TrimSpace(in.Color)) {
	case "", "auto":
		cfg.Color = term.IsTerminal(int(os.Stdout.Fd()))
	case "yes", "true", "always":
		cfg.Color = true
	case "no", "false", "never":
		cfg.Color = false
	default:
		return nil, fmt.Errorf("config: color must be auto, yes or no, got %q", in.Color)
	}
	return cfg, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
