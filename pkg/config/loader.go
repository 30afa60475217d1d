// Package config provides configuration loading for connector configs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load loads a configuration from a YAML file into config. Occurrences of
// ${VAR} and ${VAR:-default} are substituted from the environment before
// parsing, so tokens never need to live in config files.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// LoadConnectorConfig loads a BaseConfig from a YAML file, applies defaults
// for unset sections, and validates the result.
func LoadConnectorConfig(filePath string) (*BaseConfig, error) {
	cfg := NewBaseConfig("", "")
	if err := Load(filePath, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filePath, err)
	}
	return cfg, nil
}

// LoadWithEnv loads a BaseConfig via viper, letting environment variables
// override file values. Keys map as CHAT_CONNECTOR_SLACK_BOT_TOKEN →
// slack.bot_token.
func LoadWithEnv(filePath string) (*BaseConfig, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHAT_CONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewBaseConfig("", "")
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filePath, err)
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values.
func substituteEnvVars(content string) string {
	var sb strings.Builder
	for {
		start := strings.Index(content, "${")
		if start < 0 {
			sb.WriteString(content)
			break
		}
		end := strings.Index(content[start:], "}")
		if end < 0 {
			sb.WriteString(content)
			break
		}
		end += start

		sb.WriteString(content[:start])
		expr := content[start+2 : end]

		name, def := expr, ""
		if idx := strings.Index(expr, ":-"); idx >= 0 {
			name, def = expr[:idx], expr[idx+2:]
		}

		if val, ok := os.LookupEnv(name); ok {
			sb.WriteString(val)
		} else {
			sb.WriteString(def)
		}

		content = content[end+1:]
	}
	return sb.String()
}
