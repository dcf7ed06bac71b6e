/*
Package config loads runtime settings for the disposition engine.

LOAD ORDER (later wins):
  1. DefaultConfig()
  2. TOML file (optional, path given by --config)
  3. .env file in the working directory (optional)
  4. Environment: DISPO_PORT, DISPO_RATE_LIMIT, DISPO_CORS_ORIGINS

FILE FORMAT:
  [server]
  port = 8080
  rate_limit = "100-M"
  cors_origins = ["http://localhost:5173"]

  [[employees]]
  personnel_no = "MA001"
  first_name = "Max"
  last_name = "Mustermann"
  department = "IT-Entwicklung"
  hourly_rate = "85.00"
  qualification = "Senior Developer"

  [[rules]]
  name = "Projekt-Premium-Zuschlag"
  bonus = "10"
  when = { kind = "project_contains", value = "Premium" }

Decimal values (hourly_rate, bonus) are written as strings so they are
never routed through float64.
*/
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/factory"
	"github.com/warp/disposition-engine/settlement"
)

const (
	EnvPort        = "DISPO_PORT"
	EnvRateLimit   = "DISPO_RATE_LIMIT"
	EnvCORSOrigins = "DISPO_CORS_ORIGINS"
)

type Config struct {
	Server    ServerConfig       `toml:"server"`
	Employees []EmployeeConfig   `toml:"employees"`
	Rules     []factory.RuleJSON `toml:"rules"`
}

type ServerConfig struct {
	Port int `toml:"port"`

	// RateLimit uses the limiter format "<count>-<S|M|H|D>", e.g. "100-M".
	// Empty disables rate limiting.
	RateLimit   string   `toml:"rate_limit"`
	CORSOrigins []string `toml:"cors_origins"`
}

// EmployeeConfig is one roster entry.
type EmployeeConfig struct {
	PersonnelNo   string `toml:"personnel_no"`
	FirstName     string `toml:"first_name"`
	LastName      string `toml:"last_name"`
	Department    string `toml:"department"`
	HourlyRate    string `toml:"hourly_rate"`
	Qualification string `toml:"qualification"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			RateLimit:   "100-M",
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// does not exist), then applies .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("config: %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvRateLimit); ok {
		cfg.Server.RateLimit = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	return nil
}

// Roster converts the configured employees. IDs are assigned in file order
// starting at 1.
func (c *Config) Roster() ([]disposition.Employee, error) {
	out := make([]disposition.Employee, 0, len(c.Employees))
	for i, ec := range c.Employees {
		e, err := ec.Employee()
		if err != nil {
			return nil, fmt.Errorf("employee %d: %w", i+1, err)
		}
		e.ID = i + 1
		out = append(out, e)
	}
	return out, nil
}

func (ec EmployeeConfig) Employee() (disposition.Employee, error) {
	no := strings.TrimSpace(ec.PersonnelNo)
	if no == "" {
		return disposition.Employee{}, errors.New("personnel_no is required")
	}
	rate := decimal.Zero
	if ec.HourlyRate != "" {
		r, err := decimal.NewFromString(strings.TrimSpace(ec.HourlyRate))
		if err != nil {
			return disposition.Employee{}, fmt.Errorf("%s: hourly_rate: %w", no, err)
		}
		if r.IsNegative() {
			return disposition.Employee{}, fmt.Errorf("%s: hourly_rate %s is negative", no, r)
		}
		rate = r
	}
	return disposition.Employee{
		PersonnelNo:   no,
		FirstName:     ec.FirstName,
		LastName:      ec.LastName,
		Department:    ec.Department,
		HourlyRate:    rate,
		Qualification: ec.Qualification,
	}, nil
}

// BuildEngine creates a directory from the roster and an engine with the
// built-in rules followed by the configured ones.
func (c *Config) BuildEngine(opts ...settlement.Option) (*settlement.Engine, *settlement.MemoryDirectory, error) {
	roster, err := c.Roster()
	if err != nil {
		return nil, nil, err
	}
	rules, err := factory.NewRuleFactory().FromJSONList(c.Rules)
	if err != nil {
		return nil, nil, err
	}
	dir := settlement.NewMemoryDirectory(roster...)
	engine := settlement.NewEngine(dir, opts...)
	for _, r := range rules {
		if err := engine.AddRule(r); err != nil {
			return nil, nil, err
		}
	}
	return engine, dir, nil
}
