// Package config loads process configuration from a .env file, an optional
// YAML file and CLIO_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

const envPrefix = "CLIO_"

type Config struct {
	DataDir  string   `yaml:"data_dir"`
	LogLevel string   `yaml:"log_level"`
	Database Database `yaml:"database"`
	Sweep    Sweep    `yaml:"sweep"`
	Watch    Watch    `yaml:"watch"`
	MCP      MCP      `yaml:"mcp"`
}

// Database selects the persistence backend. For sqlite only Path is used;
// networked drivers use DSN (or URI for mongo) and may pull the password
// from the secret store under PasswordKey.
type Database struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	DSN         string `yaml:"dsn"`
	Name        string `yaml:"name"` // mongo database name
	PasswordKey string `yaml:"password_key"`
}

type Sweep struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type Watch struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type MCP struct {
	RequireApproval bool          `yaml:"require_approval"`
	ApprovalTimeout time.Duration `yaml:"approval_timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		DataDir:  dataDir,
		LogLevel: "info",
		Database: Database{
			Driver: DriverSQLite,
			Path:   filepath.Join(dataDir, "clio.db"),
			Name:   "clio",
		},
		Sweep: Sweep{Enabled: true, Schedule: "@every 10m"},
		Watch: Watch{Enabled: true, Debounce: 250 * time.Millisecond},
		MCP:   MCP{ApprovalTimeout: 120 * time.Second},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "clio")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clio"
	}
	return filepath.Join(home, ".local", "share", "clio")
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error, a missing explicit YAML file is.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dataDirBefore := cfg.DataDir
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	// database path follows a relocated data dir unless set explicitly
	if cfg.DataDir != dataDirBefore && cfg.Database.Path == filepath.Join(dataDirBefore, "clio.db") {
		cfg.Database.Path = filepath.Join(cfg.DataDir, "clio.db")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
		}
		*dst = b
		return nil
	}
	duration := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("DATA_DIR", &c.DataDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_PATH", &c.Database.Path)
	str("DB_DSN", &c.Database.DSN)
	str("DB_NAME", &c.Database.Name)
	str("DB_PASSWORD_KEY", &c.Database.PasswordKey)
	str("SWEEP_SCHEDULE", &c.Sweep.Schedule)

	return errors.Join(
		boolean("SWEEP_ENABLED", &c.Sweep.Enabled),
		boolean("WATCH_ENABLED", &c.Watch.Enabled),
		duration("WATCH_DEBOUNCE", &c.Watch.Debounce),
		boolean("MCP_REQUIRE_APPROVAL", &c.MCP.RequireApproval),
		duration("MCP_APPROVAL_TIMEOUT", &c.MCP.ApprovalTimeout),
	)
}

// Validate checks the fields that would otherwise fail late at startup.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel, validation.Required, validation.By(knownLevel)),
		validation.Field(&c.Database),
		validation.Field(&c.Sweep),
		validation.Field(&c.Watch),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required,
			validation.In(DriverSQLite, DriverPostgres, DriverMySQL, DriverMongo)),
		validation.Field(&d.Path, validation.When(d.Driver == DriverSQLite, validation.Required)),
		validation.Field(&d.DSN, validation.When(d.Driver != DriverSQLite, validation.Required)),
		validation.Field(&d.Name, validation.When(d.Driver == DriverMongo, validation.Required)),
	)
}

func (s Sweep) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Schedule, validation.When(s.Enabled, validation.Required, validation.By(cronSchedule))),
	)
}

func (w Watch) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Debounce, validation.Min(time.Duration(0))),
	)
}

func cronSchedule(value any) error {
	spec, _ := value.(string)
	if _, err := cron.ParseStandard(spec); err != nil {
		return errors.New("must be a cron expression or @every descriptor")
	}
	return nil
}

func knownLevel(value any) error {
	s, _ := value.(string)
	if _, err := ParseLevel(s); err != nil {
		return errors.New("must be one of debug, info, warn, error")
	}
	return nil
}

// Redacted returns the DSN with any password masked, for logging.
func (d Database) Redacted() string {
	if u, err := url.Parse(d.DSN); err == nil && u.User != nil {
		return u.Redacted()
	}
	// go-sql-driver style: user:pass@tcp(host)/db
	at := strings.LastIndex(d.DSN, "@")
	if at < 0 {
		return d.DSN
	}
	user, _, ok := strings.Cut(d.DSN[:at], ":")
	if !ok {
		return d.DSN
	}
	return user + ":xxxxx" + d.DSN[at:]
}
