package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Run modes
const (
	ModeCluster = "cluster"
	ModeSingle  = "single"
)

// Config holds all application configuration.
type Config struct {
	Port         int
	Workers      int // 0 means one per available CPU
	Mode         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // 0 disables the write deadline
	H2C          bool
	NoColor      bool
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// environment variable names, keyed by config key
var envKeys = map[string]string{
	"port":          "PORT",
	"workers":       "WORKERS",
	"mode":          "MODE",
	"env":           "APP_ENV",
	"read-timeout":  "READ_TIMEOUT",
	"write-timeout": "WRITE_TIMEOUT",
	"h2c":           "H2C",
	"no-color":      "NO_COLOR",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults match the
// environment defaults so an unset flag never shadows an env value.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 3000, "HTTP server port (env PORT)")
	fs.Int("workers", 0, "worker processes in cluster mode, 0 = one per CPU (env WORKERS)")
	fs.String("mode", ModeCluster, "run mode: cluster or single (env MODE)")
	fs.String("env", "development", "environment name (env APP_ENV)")
	fs.Duration("read-timeout", 10*time.Second, "request header read timeout (env READ_TIMEOUT)")
	fs.Duration("write-timeout", 0, "response write timeout, 0 disables (env WRITE_TIMEOUT)")
	fs.Bool("h2c", true, "accept HTTP/2 over cleartext (env H2C)")
	fs.Bool("no-color", false, "disable colored access logs (env NO_COLOR)")
}

// Load builds a Config from defaults, environment variables and the flags
// registered on fs. Explicitly set flags win over the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "3000")
	v.SetDefault("workers", "0")
	v.SetDefault("mode", ModeCluster)
	v.SetDefault("env", "development")
	v.SetDefault("read-timeout", 10*time.Second)
	v.SetDefault("write-timeout", time.Duration(0))
	v.SetDefault("h2c", true)
	v.SetDefault("no-color", false)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", env)
		}
	}

	if fs != nil {
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
				bindErr = errors.Wrapf(err, "bind flag --%s", f.Name)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("port")))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid port %q", v.GetString("port"))
	}
	workers, err := strconv.Atoi(strings.TrimSpace(v.GetString("workers")))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid worker count %q", v.GetString("workers"))
	}

	cfg := &Config{
		Port:         port,
		Workers:      workers,
		Mode:         strings.ToLower(strings.TrimSpace(v.GetString("mode"))),
		Env:          v.GetString("env"),
		ReadTimeout:  v.GetDuration("read-timeout"),
		WriteTimeout: v.GetDuration("write-timeout"),
		H2C:          v.GetBool("h2c"),
		NoColor:      v.GetBool("no-color"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.Workers < 0 {
		return errors.Errorf("worker count %d must not be negative", c.Workers)
	}
	switch c.Mode {
	case ModeCluster, ModeSingle:
	default:
		return errors.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeCluster, ModeSingle)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}
