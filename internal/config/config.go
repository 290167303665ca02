package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/avstrong/studio/internal/payment"
	"github.com/avstrong/studio/internal/schedule"
)

const (
	EnvPrefix = "studio"

	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

type Server struct {
	Host              string        `toml:"host"                split_words:"true"`
	Port              string        `toml:"port"                split_words:"true"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout" split_words:"true"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"    split_words:"true"`
	LivenessEndpoint  string        `toml:"liveness_endpoint"   split_words:"true"`
}

type Storage struct {
	Driver      string        `toml:"driver"       split_words:"true"`
	Path        string        `toml:"path"         split_words:"true"`
	BusyTimeout time.Duration `toml:"busy_timeout" split_words:"true"`
}

type Schedule struct {
	WindowDays    int `toml:"window_days"     split_words:"true"`
	MaxWindowDays int `toml:"max_window_days" split_words:"true"`
}

// Payroll amounts are decimal strings in SEK.
type Payroll struct {
	HourlyRate   decimal.Decimal `toml:"hourly_rate"  split_words:"true"`
	EventBonus   decimal.Decimal `toml:"event_bonus"  split_words:"true"`
	VATRate      decimal.Decimal `toml:"vat_rate"     split_words:"true"`
	Contributors []string        `toml:"contributors" split_words:"true"`
}

type Auth struct {
	JWTSecret string        `toml:"jwt_secret" split_words:"true"`
	TokenTTL  time.Duration `toml:"token_ttl"  split_words:"true"`
}

type Log struct {
	Level       string `toml:"level"       split_words:"true"`
	Development bool   `toml:"development" split_words:"true"`
}

type Config struct {
	Server   Server   `toml:"server"   split_words:"true"`
	Storage  Storage  `toml:"storage"  split_words:"true"`
	Schedule Schedule `toml:"schedule" split_words:"true"`
	Payroll  Payroll  `toml:"payroll"  split_words:"true"`
	Auth     Auth     `toml:"auth"     split_words:"true"`
	Log      Log      `toml:"log"      split_words:"true"`
}

func StudioDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	return filepath.Join(homeDir, ".studio"), nil
}

func DefaultPath() (string, error) {
	dir, err := StudioDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.toml"), nil
}

func DefaultConfig() *Config {
	dbPath := "studio.db"
	if dir, err := StudioDir(); err == nil {
		dbPath = filepath.Join(dir, "studio.db")
	}

	rates := payment.DefaultRates()

	return &Config{
		Server: Server{
			Host:              "localhost",
			Port:              "8092",
			ReadHeaderTimeout: 20 * time.Second, //nolint:gomnd
			ShutdownTimeout:   4 * time.Second,  //nolint:gomnd
			LivenessEndpoint:  "/liveness",
		},
		Storage: Storage{
			Driver:      DriverSQLite,
			Path:        dbPath,
			BusyTimeout: 5 * time.Second, //nolint:gomnd
		},
		Schedule: Schedule{
			WindowDays:    schedule.DefaultWindowDays,
			MaxWindowDays: schedule.DefaultMaxWindowDays,
		},
		Payroll: Payroll{
			HourlyRate: rates.HourlyRate,
			EventBonus: rates.EventBonus,
			VATRate:    rates.VATRate,
		},
		Auth: Auth{
			TokenTTL: 12 * time.Hour, //nolint:gomnd
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults and then applies STUDIO_*
// environment overrides. A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gomnd
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("storage driver %q must be %q or %q: %w", c.Storage.Driver, DriverSQLite, DriverMemory, ErrInvalidConfig)
	}

	if c.Schedule.MaxWindowDays < 1 {
		return fmt.Errorf("schedule.max_window_days must be positive: %w", ErrInvalidConfig)
	}

	if c.Schedule.WindowDays < 1 || c.Schedule.WindowDays > c.Schedule.MaxWindowDays {
		return fmt.Errorf("schedule.window_days must be within 1..%d: %w", c.Schedule.MaxWindowDays, ErrInvalidConfig)
	}

	if c.Payroll.HourlyRate.IsNegative() || c.Payroll.EventBonus.IsNegative() || c.Payroll.VATRate.IsNegative() {
		return fmt.Errorf("payroll rates must not be negative: %w", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) Rates() payment.Rates {
	return payment.Rates{
		HourlyRate: c.Payroll.HourlyRate,
		EventBonus: c.Payroll.EventBonus,
		VATRate:    c.Payroll.VATRate,
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}

	return path
}
