package config

import (
	"time"

	"github.com/spf13/viper"
)

// fileConfig mirrors the TOML layout. Pointer fields distinguish "absent"
// from zero so file values only override defaults when present.
type fileConfig struct {
	Timeout          time.Duration     `mapstructure:"timeout"`
	CleanupOnExit    *bool             `mapstructure:"cleanup_on_exit"`
	LogLevel         string            `mapstructure:"log_level"`
	LogFile          string            `mapstructure:"log_file"`
	SocketPath       string            `mapstructure:"socket_path"`
	WorkDir          string            `mapstructure:"work_dir"`
	NodeModulesCheck *bool             `mapstructure:"node_modules_check"`
	AutoInstallDeps  *bool             `mapstructure:"auto_install_deps"`
	Extensions       []string          `mapstructure:"extensions"`
	NodeOptions      string            `mapstructure:"node_options"`
	Env              map[string]string `mapstructure:"env"`
}

// Load reads a TOML config file and merges it over Default().
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}

	c := Default()
	if fc.Timeout > 0 {
		c.Timeout = fc.Timeout
	}
	if fc.CleanupOnExit != nil {
		c.CleanupOnExit = *fc.CleanupOnExit
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.SocketPath != "" {
		c.SocketPath = fc.SocketPath
	}
	if fc.WorkDir != "" {
		c.WorkDir = fc.WorkDir
	}
	if fc.NodeModulesCheck != nil {
		c.NodeModulesCheck = *fc.NodeModulesCheck
	}
	if fc.AutoInstallDeps != nil {
		c.AutoInstallDeps = *fc.AutoInstallDeps
	}
	if len(fc.Extensions) > 0 {
		c.Extensions = fc.Extensions
	}
	if fc.NodeOptions != "" {
		c.NodeOptions = fc.NodeOptions
	}
	if len(fc.Env) > 0 {
		c.Env = fc.Env
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
