package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/paths"
	"github.com/grovetools/dqm/schema"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvServerURL overrides server.base_url after all files are merged.
const EnvServerURL = "DQM_SERVER_URL"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"dqm.yml",
	"dqm.yaml",
	".dqm.yml",
	".dqm.yaml",
	"dqm.toml",
}

var overrideNames = []string{
	"dqm.override.yml",
	"dqm.override.yaml",
	".dqm.override.yml",
	".dqm.override.yaml",
}

// Load reads and parses a single dqm configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if isTOML(path) {
		return LoadFromTOMLBytes(data)
	}
	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/dqm/dqm.yml) - base layer
// 2. Project config (dqm.yml) - overrides global
// 3. Local override (dqm.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return LoadFromWithLogger(startDir, logger)
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging.
// Unlike Load, a missing project file is not an error: the global layer and
// the defaults are enough to talk to a local backend.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	finalConfig := &Config{}

	// 1. Global config (optional)
	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalConfig, err := readRaw(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
			} else {
				finalConfig = globalConfig
			}
		}
	}

	// 2. Project config (optional)
	projectPath, err := FindConfigFile(startDir)
	if err == nil && projectPath != globalPath {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		projectConfig, err := readRaw(projectPath)
		if err != nil {
			return nil, err
		}
		finalConfig = mergeConfigs(finalConfig, projectConfig)

		// 3. Override files (optional)
		projectDir := filepath.Dir(projectPath)
		for _, name := range overrideNames {
			overridePath := filepath.Join(projectDir, name)
			if _, err := os.Stat(overridePath); err != nil {
				continue
			}
			logger.WithField("path", overridePath).Debug("Loading local override configuration")
			overrideConfig, err := readRaw(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}
			finalConfig = mergeConfigs(finalConfig, overrideConfig)
		}
	}

	if url := os.Getenv(EnvServerURL); url != "" {
		logger.WithField("url", url).Debug("Server URL overridden from environment")
		finalConfig.Server.BaseURL = url
	}

	if err := finalize(finalConfig); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		configData, err := yaml.Marshal(finalConfig)
		if err == nil {
			logger.Debugf("Merged configuration:\n%s", string(configData))
		}
	}

	return finalConfig, nil
}

// LoadFromBytes parses YAML configuration from byte array
func LoadFromBytes(data []byte) (*Config, error) {
	config, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := finalize(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromTOMLBytes parses TOML configuration from byte array
func LoadFromTOMLBytes(data []byte) (*Config, error) {
	config, err := parseTOML(data)
	if err != nil {
		return nil, err
	}
	if err := finalize(config); err != nil {
		return nil, err
	}
	return config, nil
}

// finalize validates against the schema, applies defaults and runs the
// semantic checks.
func finalize(config *Config) error {
	if err := schema.Validate(config.document()); err != nil {
		code := errors.ErrCodeConfigInvalid
		var verr *schema.ValidationError
		if stderrors.As(err, &verr) {
			code = errors.ErrCodeConfigValidation
		}
		return errors.Wrap(err, code, "schema validation failed")
	}

	config.SetDefaults()

	return config.Validate()
}

// document returns the configuration as the JSON-like value the schema
// describes, extensions included.
func (c *Config) document() map[string]interface{} {
	doc := make(map[string]interface{}, len(c.Extensions)+3)
	for key, value := range c.Extensions {
		doc[key] = value
	}
	if c.Version != "" {
		doc["version"] = c.Version
	}
	doc["server"] = c.Server
	doc["ui"] = c.UI
	return doc
}

// readRaw loads a file without defaults or validation.
func readRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var config *Config
	if isTOML(path) {
		config, err = parseTOML(data)
	} else {
		config, err = parseYAML(data)
	}
	if err != nil {
		if dqmErr, ok := errors.As(err); ok {
			return nil, dqmErr.WithDetail("path", path)
		}
		return nil, err
	}
	return config, nil
}

func parseYAML(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	return &config, nil
}

// parseTOML decodes the known sections into Config and keeps every other
// top-level table as an extension.
func parseTOML(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var config Config
	if err := toml.Unmarshal(expanded, &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(expanded, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}
	for key, value := range raw {
		switch key {
		case "version", "server", "ui":
			continue
		}
		if config.Extensions == nil {
			config.Extensions = make(map[string]interface{})
		}
		config.Extensions[key] = value
	}

	return &config, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// FindConfigFile searches for dqm configuration files with the following precedence:
// 1. Current directory up to filesystem root
// 2. XDG config directory (~/.config/dqm/dqm.yml)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getXDGConfigPath returns the path of the global dqm.yml
func getXDGConfigPath() string {
	return paths.GlobalConfigFile()
}
