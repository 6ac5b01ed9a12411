// Package ddbconfig resolves carpenter's settings.
//
// Settings come from command line flags, CARPENTER_* environment variables,
// a carpenter.yaml file and built-in defaults, in that order of precedence.
// The result is a plain Config value; nothing here mutates process state.
package ddbconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Environment variables prefixed with "CARPENTER_" override settings, e.g. CARPENTER_PORT.
	envPrefix = "carpenter"
	// FileName is looked up in the working directory and each of its parents.
	FileName = "carpenter.yaml"

	DefaultPort            = 8000
	DefaultRegion          = "local"
	DefaultAccessKeyID     = "unittest"
	DefaultSecretAccessKey = "letmein"
	DefaultMaxAttempts     = 5
)

type Config struct {
	// Endpoint overrides the store URL. Empty means http://localhost:{Port}.
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	Region          string `mapstructure:"region" validate:"required"`
	AccessKeyID     string `mapstructure:"access-key-id" validate:"required"`
	SecretAccessKey string `mapstructure:"secret-access-key" validate:"required"`
	MaxAttempts     int    `mapstructure:"max-attempts" validate:"gte=1,lte=20"`
	Port            int    `mapstructure:"port" validate:"gte=1,lte=65535"`

	// DBPath selects the embedded store persisted at this directory.
	DBPath string `mapstructure:"db"`
	// InMemory selects a throwaway embedded store.
	InMemory bool `mapstructure:"memory"`

	Naming     schema.Naming     `mapstructure:"naming"`
	Throughput schema.Throughput `mapstructure:"throughput"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// EndpointURL is the URL of the DynamoDB API to talk to.
func (c Config) EndpointURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// Embedded reports whether the embedded store is used instead of a remote endpoint.
func (c Config) Embedded() bool {
	return c.InMemory || c.DBPath != ""
}

func defaults() map[string]any {
	naming := schema.DefaultNaming()
	return map[string]any{
		"endpoint":                "",
		"region":                  DefaultRegion,
		"access-key-id":           DefaultAccessKeyID,
		"secret-access-key":       DefaultSecretAccessKey,
		"max-attempts":            DefaultMaxAttempts,
		"port":                    DefaultPort,
		"db":                      "",
		"memory":                  false,
		"naming.gsi-prefix":       naming.GSIPrefix,
		"naming.lsi-prefix":       naming.LSIPrefix,
		"naming.partition-suffix": naming.PartitionSuffix,
		"naming.sort-suffix":      naming.SortSuffix,
		"throughput.read":         schema.DefaultThroughput.ReadCapacityUnits,
		"throughput.write":        schema.DefaultThroughput.WriteCapacityUnits,
	}
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: nearest "+FileName+")")
	fs.String("endpoint", "", "DynamoDB endpoint URL (default http://localhost:{port})")
	fs.String("region", DefaultRegion, "AWS region")
	fs.Int("port", DefaultPort, "port of the local DynamoDB service")
	fs.Int("max-attempts", DefaultMaxAttempts, "maximum attempts per request")
	fs.String("db", "", "use the embedded store persisted in this directory")
	fs.Bool("memory", false, "use a throwaway in-memory embedded store")
}

// Load resolves the configuration. Flags may be nil. The config file named by
// the --config flag is required to exist; without it the nearest FileName
// above the working directory is used when present.
func Load(flags *pflag.FlagSet) (Config, error) {
	const op = "ddbconfig.Load"
	v := viper.New()
	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var file string
	if flags != nil {
		flags.VisitAll(func(flag *pflag.Flag) {
			if flag.Name == "config" {
				file = flag.Value.String()
				return
			}
			if _, ok := defaults()[flag.Name]; ok {
				_ = v.BindPFlag(flag.Name, flag)
			}
		})
	}
	if file == "" {
		file = os.Getenv("CARPENTER_CONFIG")
	}
	if file == "" {
		if wd, err := os.Getwd(); err == nil {
			file = FindFile(wd)
		}
	} else if _, err := os.Stat(file); err != nil {
		return Config{}, ddberr.New(ddberr.InvalidArgument, op, fmt.Errorf("config file: %w", err))
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, ddberr.New(ddberr.InvalidArgument, op, fmt.Errorf("read config %s: %w", file, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, ddberr.New(ddberr.InvalidArgument, op, fmt.Errorf("decode config: %w", err))
	}
	cfg.File = file
	if err := cfg.Validate(); err != nil {
		return Config{}, ddberr.New(ddberr.InvalidArgument, op, err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s must satisfy %s=%s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		} else {
			msgs[i] = fmt.Sprintf("%s must satisfy %s, got %v", fe.Field(), fe.Tag(), fe.Value())
		}
	}
	return errors.New("invalid config: " + strings.Join(msgs, "; "))
}

// FindFile returns the nearest FileName in dir or one of its parents, or "".
func FindFile(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
