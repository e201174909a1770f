package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/deltaconsumer/errors"
)

// ProjectConfigName is the file searched for from the working directory up.
const ProjectConfigName = "deltaconsumer.toml"

var globalConfig *Config
var viperInstance *viper.Viper

// explicitConfig is a file named on the command line; it takes precedence
// over every discovered file.
var explicitConfig string

// SetConfigFile makes Load merge path on top of the discovered config files.
// Call it before the first Load.
func SetConfigFile(path string) {
	explicitConfig = path
}

// Load reads the configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()
	if explicitConfig != "" {
		if _, err := os.Stat(explicitConfig); err != nil {
			return nil, errors.WithHint(errors.Wrapf(err, "config file %s", explicitConfig),
				"check the --config flag")
		}
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, on top of
// the defaults and without environment variables
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	explicitConfig = ""
	ConfigSources = make(map[string]SourceInfo)
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindLegacyEnvVars(v)

	// Set defaults first
	SetDefaults(v)

	// Manually merge configs in precedence order: system -> user -> project -> explicit -> env vars
	mergeConfigFiles(v, configPaths())

	viperInstance = v
	return v
}

// findProjectConfig searches for deltaconsumer.toml by walking up the directory tree
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, stop searching
			break
		}
		dir = parent
	}

	return ""
}

// configPaths lists candidate config files with their source, lowest
// precedence first
func configPaths() []SourceInfo {
	paths := []SourceInfo{
		{Source: SourceSystem, Path: "/etc/deltaconsumer/config.toml"},
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, SourceInfo{Source: SourceUser, Path: filepath.Join(homeDir, ".deltaconsumer", "config.toml")})
	}
	if projectConfig := findProjectConfig(); projectConfig != "" {
		paths = append(paths, SourceInfo{Source: SourceProject, Path: projectConfig})
	}
	if explicitConfig != "" {
		paths = append(paths, SourceInfo{Source: SourceExplicit, Path: explicitConfig})
	}
	return paths
}

// mergeConfigFiles merges configuration files in order, later files
// overriding earlier ones key by key, and records where each key came from
func mergeConfigFiles(v *viper.Viper, paths []SourceInfo) {
	for _, src := range paths {
		if _, err := os.Stat(src.Path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(src.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// MergeConfigMap keeps environment variables above file values
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = src
		}
	}
}
