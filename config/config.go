// Package config is the viper-backed configuration the CLI commands
// load: which role to run as, where to listen or dial, and how to
// configure the channel.Options the session runs with.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tlschannel/tlschannel/channel"
)

// Config is the top-level application configuration, populated from a
// config file, environment variables (TLSCHANNEL_*), and flags, in
// that order of increasing precedence (spf13/viper's normal layering).
type Config struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Engine selects the concrete engine.Engine: "noise" (production,
	// flynn/noise-backed) or "test" (deterministic pass-through, for
	// smoke-testing the CLI wiring itself without a real handshake).
	Engine string `json:"engine" yaml:"engine" mapstructure:"engine"`

	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`

	Channel ChannelConfig `json:"channel" yaml:"channel" mapstructure:"channel"`
}

// ChannelConfig mirrors channel.Options in config-file-friendly form
// (durations as strings, no function fields).
type ChannelConfig struct {
	ExplicitHandshake        bool          `json:"explicitHandshake" yaml:"explicitHandshake" mapstructure:"explicitHandshake"`
	RunTasks                 bool          `json:"runTasks" yaml:"runTasks" mapstructure:"runTasks"`
	WaitForCloseConfirmation bool          `json:"waitForCloseConfirmation" yaml:"waitForCloseConfirmation" mapstructure:"waitForCloseConfirmation"`
	InitialBufferSize        int           `json:"initialBufferSize" yaml:"initialBufferSize" mapstructure:"initialBufferSize"`
	MaxPacketSize            int           `json:"maxPacketSize" yaml:"maxPacketSize" mapstructure:"maxPacketSize"`
	HandshakeTimeout         time.Duration `json:"handshakeTimeout" yaml:"handshakeTimeout" mapstructure:"handshakeTimeout"`
}

// defaultConfig is the YAML baseline every Config starts from, merged
// under whatever the caller's config file and flags override.
const defaultConfig = `
addr: "127.0.0.1:4443"
engine: "noise"
debug: false
channel:
  explicitHandshake: false
  runTasks: true
  waitForCloseConfirmation: false
  initialBufferSize: 4096
  maxPacketSize: 17408
  handshakeTimeout: 10s
`

// New builds a Config from the built-in defaults plus whatever path
// points at (a YAML or JSON file); path may be empty to use defaults
// only.
func New(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("config: parse built-in defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("TLSCHANNEL")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ToChannelOptions converts the config-file-friendly ChannelConfig
// into channel.Options, the form session.go's constructor consumes.
// cb is threaded through as SessionInitCallback since it isn't
// representable in config (it's a function), not a config value.
func (c *Config) ToChannelOptions(cb func() error) channel.Options {
	return channel.Options{
		ExplicitHandshake:        c.Channel.ExplicitHandshake,
		RunTasks:                 c.Channel.RunTasks,
		WaitForCloseConfirmation: c.Channel.WaitForCloseConfirmation,
		InitialBufferSize:        c.Channel.InitialBufferSize,
		MaxPacketSize:            c.Channel.MaxPacketSize,
		SessionInitCallback:      cb,
	}
}
