package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "VITALS"

// UserEntry is one row of the credentials file.
type UserEntry struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	Role         string `mapstructure:"role"`
}

// PatientEntry is one row of the optional patients list.
type PatientEntry struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	GRPCAddr string `mapstructure:"grpc_addr"` // empty disables the gRPC health listener

	// DB
	Env    string `mapstructure:"env"`     // "dev" | "prod"
	DBPath string `mapstructure:"db_path"` // e.g. "./data/vital_signs.db"

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "json" | "console"

	CredentialsFile string `mapstructure:"credentials_file"`
	SessionSecret   string `mapstructure:"session_secret"`

	// Sessions unused for this long are dropped; 0 keeps them until logout.
	SessionIdleMinutes   int `mapstructure:"session_idle_minutes"`
	SessionSweepSeconds  int `mapstructure:"session_sweep_seconds"`
	ShutdownGraceSeconds int `mapstructure:"shutdown_grace_seconds"`

	SeedDemo bool `mapstructure:"seed_demo"` // dev only

	Patients []PatientEntry `mapstructure:"patients"`

	// Loaded from CredentialsFile, never from env.
	Users []UserEntry `mapstructure:"-"`
}

func (c Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepSeconds) * time.Second
}

func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// PatientMap returns the configured directory, or nil when none is set.
func (c Config) PatientMap() map[int]string {
	if len(c.Patients) == 0 {
		return nil
	}
	out := make(map[int]string, len(c.Patients))
	for _, p := range c.Patients {
		out[p.ID] = p.Name
	}
	return out
}

// Load reads defaults, then the optional config file, then VITALS_*
// environment variables, then the credentials file.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("env", "dev")
	v.SetDefault("db_path", "./data/vital_signs.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("credentials_file", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_idle_minutes", 480)
	v.SetDefault("session_sweep_seconds", 60)
	v.SetDefault("shutdown_grace_seconds", 5)
	v.SetDefault("seed_demo", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	if cfg.SessionIdleMinutes < 0 {
		cfg.SessionIdleMinutes = 0
	}
	if cfg.SeedDemo && cfg.Env != "dev" {
		cfg.SeedDemo = false
	}

	if cfg.CredentialsFile != "" {
		users, err := LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Users = users
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Env == "prod" {
		if c.CredentialsFile == "" {
			return errors.New("VITALS_CREDENTIALS_FILE is required in prod")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("VITALS_SESSION_SECRET must be at least 32 bytes in prod")
		}
	}
	seen := make(map[int]bool, len(c.Patients))
	for _, p := range c.Patients {
		if p.ID <= 0 || strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("invalid patient entry %+v", p)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate patient id %d", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// LoadCredentials reads a YAML/JSON/TOML file holding a top-level "users"
// list of {username, password_hash, role}.
func LoadCredentials(path string) ([]UserEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}

	var file struct {
		Users []UserEntry `mapstructure:"users"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return file.Users, nil
}
