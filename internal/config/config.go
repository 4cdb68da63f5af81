package config

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/component"
	"github.com/vango-dev/gousse/pkg/router"
)

const (
	// ConfigName is the configuration file name, without extension.
	ConfigName = "gousse"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "GOUSSE"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultSite is the default site definition file.
	DefaultSite = "site.yaml"

	// DefaultRenderTimeout bounds server-side renders.
	DefaultRenderTimeout = 2 * time.Second
)

// Config is the complete gousse configuration.
type Config struct {
	Router     RouterConfig     `mapstructure:"router"`
	Components ComponentsConfig `mapstructure:"components"`
	DOM        DOMConfig        `mapstructure:"dom"`
	Server     ServerConfig     `mapstructure:"server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`

	// path is the file the config was read from, if any.
	path string
}

// RouterConfig configures navigation.
type RouterConfig struct {
	// Mode is "hash" or "pushstate".
	Mode string `mapstructure:"mode"`
}

// ComponentsConfig configures the component factory.
type ComponentsConfig struct {
	// CustomElements enables custom element components. When false every
	// component is defined in function mode.
	CustomElements bool `mapstructure:"customElements"`

	// DefaultShadow is the shadow mode of components defined without one:
	// "none", "open" or "replace".
	DefaultShadow string `mapstructure:"defaultShadow"`
}

// DOMConfig configures the document.
type DOMConfig struct {
	// LegacyMutationEvents enables the inserted/removed-from-document
	// events used by function components.
	LegacyMutationEvents bool `mapstructure:"legacyMutationEvents"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr"`

	// Site is the site definition file.
	Site string `mapstructure:"site"`

	// Watch reloads the site file when it changes.
	Watch bool `mapstructure:"watch"`

	// RenderTimeout bounds the loop drain of one render.
	RenderTimeout time.Duration `mapstructure:"renderTimeout"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Router: RouterConfig{Mode: string(router.ModeHash)},
		Components: ComponentsConfig{
			CustomElements: true,
			DefaultShadow:  component.ShadowNone.String(),
		},
		DOM: DOMConfig{LegacyMutationEvents: true},
		Server: ServerConfig{
			Addr:          DefaultAddr,
			Site:          DefaultSite,
			RenderTimeout: DefaultRenderTimeout,
		},
		Metrics: MetricsConfig{Namespace: "gousse"},
		Log:     LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("router.mode", d.Router.Mode)
	v.SetDefault("components.customElements", d.Components.CustomElements)
	v.SetDefault("components.defaultShadow", d.Components.DefaultShadow)
	v.SetDefault("dom.legacyMutationEvents", d.DOM.LegacyMutationEvents)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.site", d.Server.Site)
	v.SetDefault("server.watch", d.Server.Watch)
	v.SetDefault("server.renderTimeout", d.Server.RenderTimeout)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("log.level", d.Log.Level)
}

type loadOptions struct {
	dirs  []string
	flags *pflag.FlagSet
	binds map[string]string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithSearchPaths sets the directories searched for gousse.json or
// gousse.yaml when no file is given. The default is ".".
func WithSearchPaths(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

// WithFlags binds command line flags over file and environment values.
// bindings maps config keys (e.g. "server.addr") to flag names. Flags the
// user did not set keep the lower-priority value.
func WithFlags(fs *pflag.FlagSet, bindings map[string]string) LoadOption {
	return func(o *loadOptions) {
		o.flags = fs
		o.binds = bindings
	}
}

// Load reads the configuration. When path is empty the search paths are
// tried and a missing file is not an error.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{dirs: []string{"."}}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.flags != nil {
		for key, name := range o.binds {
			f := o.flags.Lookup(name)
			if f == nil {
				return nil, gerrors.New("G050").WithDetailf("unknown flag %q for %s", name, key)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, gerrors.New("G050").Wrap(err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		for _, dir := range o.dirs {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, gerrors.New("G050").WithDetail("reading config").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, gerrors.New("G050").WithDetail("decoding config").Wrap(err)
	}
	cfg.path = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was read from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := router.ParseMode(c.Router.Mode); err != nil {
		return gerrors.New("G050").WithDetailf("router.mode %q", c.Router.Mode).Wrap(err)
	}
	if _, err := component.ParseShadowMode(c.Components.DefaultShadow); err != nil {
		return gerrors.New("G050").WithDetailf("components.defaultShadow %q", c.Components.DefaultShadow).Wrap(err)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return gerrors.New("G050").WithDetailf("log.level %q", c.Log.Level)
	}
	if c.Server.RenderTimeout < 0 {
		return gerrors.New("G050").WithDetailf("server.renderTimeout %s is negative", c.Server.RenderTimeout)
	}
	return nil
}

// RouterMode returns the parsed router mode.
func (c *Config) RouterMode() router.Mode {
	m, _ := router.ParseMode(c.Router.Mode)
	return m
}

// DefaultShadow returns the parsed default shadow mode.
func (c *Config) DefaultShadow() component.ShadowMode {
	m, _ := component.ParseShadowMode(c.Components.DefaultShadow)
	return m
}

var levels = map[string]slog.Level{
	"":      slog.LevelInfo,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return levels[strings.ToLower(c.Log.Level)]
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel()}))
}
