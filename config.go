// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"glview.org/pixfmt"
	"glview.org/platform"
)

// Config holds context settings loaded from file and environment.
type Config struct {
	PixelFormat   pixfmt.PixelFormat `mapstructure:"pixel_format"`
	Version       string             `mapstructure:"version"`
	Multisampling bool               `mapstructure:"multisampling"`
	// SwapInterval is applied after creation when positive.
	SwapInterval int `mapstructure:"swap_interval"`
	// RefreshRate is the rate in Hz of the context's software display
	// link where no hardware one exists. It does not affect other
	// contexts on the same driver.
	RefreshRate float64 `mapstructure:"refresh_rate"`
	LogLevel    string  `mapstructure:"log_level"`
}

// LoadConfig reads configuration from file and env. Env var overrides
// use the prefix GLVIEW_, for example GLVIEW_SWAP_INTERVAL or
// GLVIEW_PIXEL_FORMAT_DEPTH_BUFFER_BITS. The file is GLVIEW_CONFIG if set,
// otherwise $HOME/.config/glview/config.toml. Only the latter may be
// missing.
func LoadConfig() (Config, error) {
	v := viper.New()

	def := pixfmt.Default()
	v.SetDefault("pixel_format.red_bits", def.RedBits)
	v.SetDefault("pixel_format.green_bits", def.GreenBits)
	v.SetDefault("pixel_format.blue_bits", def.BlueBits)
	v.SetDefault("pixel_format.alpha_bits", def.AlphaBits)
	v.SetDefault("pixel_format.depth_buffer_bits", def.DepthBufferBits)
	v.SetDefault("pixel_format.stencil_buffer_bits", def.StencilBufferBits)
	v.SetDefault("pixel_format.accumulation_red_bits", 0)
	v.SetDefault("pixel_format.accumulation_green_bits", 0)
	v.SetDefault("pixel_format.accumulation_blue_bits", 0)
	v.SetDefault("pixel_format.accumulation_alpha_bits", 0)
	v.SetDefault("pixel_format.multisampling_level", 0)
	v.SetDefault("version", pixfmt.VersionDefault.String())
	v.SetDefault("multisampling", false)
	v.SetDefault("swap_interval", 1)
	v.SetDefault("refresh_rate", 60.0)
	v.SetDefault("log_level", "warn")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GLVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "glview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GLVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Only an explicitly named file has to exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := c.GLVersion(); err != nil {
		return Config{}, err
	}
	if _, err := c.Level(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// GLVersion parses Version.
func (c Config) GLVersion() (pixfmt.Version, error) {
	return pixfmt.ParseVersion(c.Version)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

// Logger returns a text logger writing to stderr at the configured
// level.
func (c Config) Logger() *slog.Logger {
	l, err := c.Level()
	if err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// refreshRateSetter is implemented by drivers with a software display
// link.
type refreshRateSetter interface {
	SetContextRefreshRate(ctx platform.Handle, hz float64)
}

// NewFromConfig creates a context as described by cfg and applies its
// swap interval and refresh rate. Like New it always returns a non-nil Context.
func NewFromConfig(surface platform.Surface, cfg Config, shared platform.Handle, opts ...Option) (*Context, error) {
	o := newOptions(opts)
	version, err := cfg.GLVersion()
	if err != nil {
		c := newContext(o)
		return c, fmt.Errorf("glview: %w: %w", ErrContextCreation, err)
	}
	c, err := New(surface, cfg.PixelFormat, shared, cfg.Multisampling, version, append(opts, WithDriver(o.driver))...)
	if err != nil {
		return c, err
	}
	if s, ok := o.driver.(refreshRateSetter); ok && cfg.RefreshRate > 0 {
		s.SetContextRefreshRate(c.RawContext(), cfg.RefreshRate)
	}
	if cfg.SwapInterval > 0 {
		c.SetSwapInterval(cfg.SwapInterval)
	}
	return c, nil
}
