// Package config loads harness settings from an optional .slsreq.yaml file
// and SLSREQ_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/vrymel/serverless-python-requirements/internal/command"
	"github.com/vrymel/serverless-python-requirements/internal/fixture"
	"github.com/vrymel/serverless-python-requirements/internal/harness"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = ".slsreq.yaml"

	// EnvPrefix prefixes every environment override, e.g. SLSREQ_CACHE_DIR.
	EnvPrefix = "SLSREQ"
)

// LoadOptions controls how configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// Config holds every harness setting.
type Config struct {
	harness.Layout `mapstructure:",squash"`

	// CacheDir overrides the user cache directory accessor.
	CacheDir string `mapstructure:"cache_dir"`

	Programs command.Programs `mapstructure:"programs"`

	// Fixtures are extra registry entries. Entries with glob
	// metacharacters are patterns.
	Fixtures []string `mapstructure:"fixtures"`

	// ScenarioDir replaces the built-in scenarios when set.
	ScenarioDir string `mapstructure:"scenario_dir"`

	// HistoryDB enables the run-history store.
	HistoryDB string `mapstructure:"history_db"`

	// Source is the file the configuration was read from, if any.
	Source string `mapstructure:"-"`
}

// Load reads configuration with precedence env > file > defaults.
// A missing default file is not an error; a missing explicit file is.
func Load(options LoadOptions) (Config, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	reader := viper.New()
	setDefaults(reader)
	reader.SetEnvPrefix(EnvPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	reader.AutomaticEnv()

	path, explicit := resolveConfigPath(workingDirectory, options.ExplicitFilePath)
	source, err := readFile(reader, path, explicit)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := reader.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.Source = source
	return cfg, nil
}

func setDefaults(reader *viper.Viper) {
	layout := harness.DefaultLayout()
	programs := command.DefaultPrograms()

	reader.SetDefault("project_dir", layout.ProjectDir)
	reader.SetDefault("plugin_dir", layout.PluginDir)
	reader.SetDefault("config_file", layout.ConfigFile)
	reader.SetDefault("artifact", layout.Artifact)
	reader.SetDefault("space_dir", layout.SpaceDir)
	reader.SetDefault("cache_dir", "")
	reader.SetDefault("programs.sls", programs.Sls)
	reader.SetDefault("programs.git", programs.Git)
	reader.SetDefault("programs.npm", programs.Npm)
	reader.SetDefault("programs.unzip", programs.Unzip)
	reader.SetDefault("fixtures", []string{})
	reader.SetDefault("scenario_dir", "")
	reader.SetDefault("history_db", "")
}

func resolveConfigPath(workingDirectory, explicitPath string) (string, bool) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, true
		}
		return filepath.Join(workingDirectory, explicitPath), true
	}
	return filepath.Join(workingDirectory, FileName), false
}

func readFile(reader *viper.Viper, path string, explicit bool) (string, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return "", fmt.Errorf("configuration path %s is a directory", path)
	}

	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if err := reader.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read configuration from %s: %w", path, err)
	}
	return path, nil
}

// ExtraFixtures parses Fixtures into registry entries.
func (c Config) ExtraFixtures() []fixture.Path {
	paths := make([]fixture.Path, 0, len(c.Fixtures))
	for _, f := range c.Fixtures {
		if f = strings.TrimSpace(f); f != "" {
			paths = append(paths, fixture.Parse(f))
		}
	}
	return paths
}

// CachePath returns the cache directory accessor: CacheDir when set,
// otherwise the user cache directory.
func (c Config) CachePath() fixture.CachePathFunc {
	if c.CacheDir == "" {
		return fixture.UserCachePath
	}
	return func() (string, error) {
		return filepath.Abs(c.CacheDir)
	}
}

// HarnessOptions builds lifecycle options from the configuration.
func (c Config) HarnessOptions(logger *slog.Logger) harness.Options {
	return harness.Options{
		Layout:        c.Layout,
		Tools:         command.NewToolchain(c.Programs, logger),
		CachePath:     c.CachePath(),
		ExtraFixtures: c.ExtraFixtures(),
		Logger:        logger,
	}
}
