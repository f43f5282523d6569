package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datallboy/newsreader/internal/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Read   ReadConfig   `mapstructure:"read" yaml:"read"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	API    APIConfig    `mapstructure:"api" yaml:"api"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           string        `mapstructure:"port" yaml:"port"` // number or service name
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DotUnstuff     bool          `mapstructure:"dot_unstuff" yaml:"dot_unstuff"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
}

type ReadConfig struct {
	Groups   []string `mapstructure:"groups" yaml:"groups"`
	Content  string   `mapstructure:"content" yaml:"content"`
	Canceled bool     `mapstructure:"canceled" yaml:"canceled"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// ContentMode is Read.Content parsed; Load has already validated it.
func (c *Config) ContentMode() domain.ContentMode {
	m, _ := domain.ParseContentMode(c.Read.Content)
	return m
}

// Load reads path (optional), NEWSREADER_* environment variables and any
// flags bound in flags, in increasing priority.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set Defaults. Every key needs one so env overrides reach Unmarshal.
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "nntp")
	v.SetDefault("server.connect_timeout", 30*time.Second)
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.dot_unstuff", false)
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")
	v.SetDefault("read.groups", []string{})
	v.SetDefault("read.content", "body")
	v.SetDefault("read.canceled", false)
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", false)
	v.SetDefault("api.listen", ":8080")

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}

		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("NEWSREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"server":    "server.host",
	"port":      "server.port",
	"timeout":   "server.timeout",
	"groups":    "read.groups",
	"content":   "read.content",
	"canceled":  "read.canceled",
	"log-level": "log.level",
	"log-file":  "log.path",
	"listen":    "api.listen",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Host == "" {
		return errors.New("server host is required (--server or server.host)")
	}

	if c.Server.Port == "" {
		c.Server.Port = "nntp"
	}
	if n, err := strconv.Atoi(c.Server.Port); err == nil && (n <= 0 || n > 65535) {
		return fmt.Errorf("server %s: invalid port %d", c.Server.Host, n)
	}

	if c.Server.Password != "" && c.Server.Username == "" {
		return fmt.Errorf("server %s: password set without a username", c.Server.Host)
	}

	if c.Server.Timeout < 0 || c.Server.ConnectTimeout < 0 {
		return fmt.Errorf("server %s: timeouts must not be negative", c.Server.Host)
	}

	if _, err := domain.ParseContentMode(c.Read.Content); err != nil {
		return err
	}

	// "a,b" from env or a yaml string both end up as one element
	var groups []string
	for _, g := range c.Read.Groups {
		for _, name := range strings.Split(g, ",") {
			if name = strings.TrimSpace(name); name != "" {
				groups = append(groups, name)
			}
		}
	}
	c.Read.Groups = groups

	return nil
}
