// Package config resolves sqlbind's settings from defaults, a .env file,
// the environment, an HCL config file and command line flags. Later
// sources win; a flag given on the command line always wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix         = "SQLBIND_"
	DefaultConfigFile = "sqlbind.hcl"
	DefaultEnvFile    = ".env"
)

var ErrUnknownVariable = errors.New("not a config variable")

type Config struct {
	Driver    string
	DSN       string
	Format    string
	MaxWidth  int
	LogFile   string
	LogLevel  string
	LogStderr bool

	ConfigFile string
	EnvFile    string
	NoConfig   bool

	// vars are the flags that can also be set from the environment and
	// the config file, by flag name.
	vars map[string]*pflag.Flag
}

func Default() *Config {
	return &Config{
		Driver:     "sqlite",
		Format:     "table",
		MaxWidth:   60,
		LogFile:    "sqlbind.log",
		LogLevel:   "info",
		ConfigFile: DefaultConfigFile,
		EnvFile:    DefaultEnvFile,
		vars:       map[string]*pflag.Flag{},
	}
}

// Flags registers the configuration flags on flags.
func (c *Config) Flags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Driver, "driver", "d", c.Driver, "engine: sqlite, postgres, mysql or mssql")
	c.vars["driver"] = flags.Lookup("driver")

	flags.StringVar(&c.DSN, "dsn", c.DSN, "data source name or sqlite `path`")
	c.vars["dsn"] = flags.Lookup("dsn")

	flags.StringVarP(&c.Format, "format", "f", c.Format, "output format: table or markdown")
	c.vars["format"] = flags.Lookup("format")

	flags.IntVar(&c.MaxWidth, "max-width", c.MaxWidth, "truncate cells wider than `n` runes")
	c.vars["max-width"] = flags.Lookup("max-width")

	flags.StringVar(&c.LogFile, "log-file", c.LogFile, "`file` to use for logging")
	c.vars["log-file"] = flags.Lookup("log-file")

	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	c.vars["log-level"] = flags.Lookup("log-level")

	flags.BoolVarP(&c.LogStderr, "log-stderr", "s", c.LogStderr, "log to standard error")

	flags.StringVar(&c.ConfigFile, "config-file", c.ConfigFile, "`file` to load config from")
	flags.StringVar(&c.EnvFile, "env-file", c.EnvFile, "`file` of KEY=value pairs to load")
	flags.BoolVar(&c.NoConfig, "no-config", c.NoConfig, "don't load config or env files")
}

// EnvName is the environment variable for the config variable name.
func EnvName(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Load applies the .env file, the environment and the config file to every
// variable whose flag was not set on the command line. lookupEnv is usually
// os.LookupEnv.
func (c *Config) Load(flags *pflag.FlagSet, lookupEnv func(string) (string, bool)) error {
	used := map[string]struct{}{}
	flags.Visit(func(flg *pflag.Flag) {
		used[flg.Name] = struct{}{}
	})

	env := map[string]string{}
	if !c.NoConfig && c.EnvFile != "" {
		var err error
		env, err = readEnvFile(c.EnvFile, c.EnvFile == DefaultEnvFile)
		if err != nil {
			return err
		}
	}

	for _, name := range c.names() {
		if _, ok := used[name]; ok {
			continue
		}
		key := EnvName(name)
		val, ok := lookupEnv(key)
		if !ok {
			val, ok = env[key]
		}
		if !ok {
			continue
		}
		if err := c.vars[name].Value.Set(val); err != nil {
			return fmt.Errorf("%s: %s", key, err)
		}
	}

	if c.NoConfig || c.ConfigFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) && c.ConfigFile == DefaultConfigFile {
		return nil
	} else if err != nil {
		return err
	}
	return c.load(b, used)
}

func (c *Config) load(b []byte, used map[string]struct{}) error {
	var cfg map[string]interface{}

	err := hcl.Decode(&cfg, string(b))
	if err != nil {
		return fmt.Errorf("%s: %s", c.ConfigFile, err)
	}
	for name, val := range cfg {
		flg, ok := c.vars[name]
		if !ok {
			return fmt.Errorf("%s: %s %w", c.ConfigFile, name, ErrUnknownVariable)
		}
		if _, ok := used[name]; ok {
			continue
		}
		err := flg.Value.Set(fmt.Sprintf("%v", val))
		if err != nil {
			return fmt.Errorf("%s: %s: %s", c.ConfigFile, name, err)
		}
	}
	return nil
}

func (c *Config) names() []string {
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func readEnvFile(path string, optional bool) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) && optional {
		return map[string]string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}
