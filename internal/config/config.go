package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | prod | test
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string        `yaml:"addr"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MaxIdleConns    int           `yaml:"max_idle_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		RunMigrations bool `yaml:"run_migrations"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string        `yaml:"kind"` // memory | redis | none
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// RateLimit acota POST /jwks por IP de cliente. GeneratePerWindow 0 lo desactiva.
	RateLimit struct {
		GeneratePerWindow int           `yaml:"generate_per_window"`
		Window            time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`

	Keys struct {
		PrivateKeyExpirationSeconds int `yaml:"private_key_expiration_seconds"`
		KeyExpirationSeconds        int `yaml:"key_expiration_seconds"`
		RSABits                     int `yaml:"rsa_bits"`

		// MasterKey cifra private_key en reposo (AES-256-GCM). Vacío: texto plano.
		MasterKey string `yaml:"master_key"`
	} `yaml:"keys"`
}

// MinRSABits es el tamaño mínimo de módulo aceptado por configuración.
const MinRSABits = 2048

// Load lee el YAML en path (si existe), aplica defaults y overrides de entorno
// y valida. Un path vacío o inexistente no es error: se usan defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default devuelve la configuración por defecto, sin YAML ni entorno.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.CORSAllowedOrigins == nil {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// RSA 4096 puede tardar varios segundos en generarse
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		if c.Storage.DSN != "" {
			c.Storage.Driver = "postgres"
		} else {
			c.Storage.Driver = "memory"
		}
	}
	if c.Cache.Kind == "" {
		// Con postgres hay otros escritores (cmd/keys, otras instancias) que no
		// pueden invalidar un cache en proceso.
		if isPostgres(c.Storage.Driver) {
			c.Cache.Kind = "none"
		} else {
			c.Cache.Kind = "memory"
		}
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Second
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellojwks"
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Keys.PrivateKeyExpirationSeconds == 0 {
		c.Keys.PrivateKeyExpirationSeconds = 86400
	}
	if c.Keys.KeyExpirationSeconds == 0 {
		c.Keys.KeyExpirationSeconds = 172800
	}
	if c.Keys.RSABits == 0 {
		c.Keys.RSABits = MinRSABits
	}
}

func isPostgres(driver string) bool {
	switch strings.ToLower(driver) {
	case "postgres", "pg", "postgresql":
		return true
	}
	return false
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

func (c *Config) applyEnvOverrides() {
	// app / log
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// server
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// storage
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	} else if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvDur("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}
	if v, ok := getEnvBool("RUN_MIGRATIONS_ON_START"); ok {
		c.Storage.RunMigrations = v
	}

	// cache
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvDur("CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// rate limit
	if v, ok := getEnvInt("RATE_LIMIT_GENERATE"); ok {
		c.RateLimit.GeneratePerWindow = v
	}
	if v, ok := getEnvDur("RATE_LIMIT_WINDOW"); ok {
		c.RateLimit.Window = v
	}

	// keys
	if v, ok := getEnvInt("PRIVATE_KEY_EXPIRATION_SECONDS"); ok {
		c.Keys.PrivateKeyExpirationSeconds = v
	}
	if v, ok := getEnvInt("KEY_EXPIRATION_SECONDS"); ok {
		c.Keys.KeyExpirationSeconds = v
	}
	if v, ok := getEnvInt("KEY_RSA_BITS"); ok {
		c.Keys.RSABits = v
	}
	if v, ok := getEnvStr("KEYS_MASTER_KEY"); ok {
		c.Keys.MasterKey = v
	} else if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Keys.MasterKey = v
	}
}

// PrivateKeyRetention es P: cuánto se entrega la clave privada desde la creación.
func (c *Config) PrivateKeyRetention() time.Duration {
	return time.Duration(c.Keys.PrivateKeyExpirationSeconds) * time.Second
}

// PublicRetention es K: cuánto sigue publicada la clave después de P.
func (c *Config) PublicRetention() time.Duration {
	return time.Duration(c.Keys.KeyExpirationSeconds) * time.Second
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Storage.Driver) {
	case "postgres", "pg", "postgresql":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported (postgres|memory)", c.Storage.Driver))
	}

	switch strings.ToLower(c.Cache.Kind) {
	case "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q is not supported (memory|redis|none)", c.Cache.Kind))
	}
	if isPostgres(c.Storage.Driver) && strings.EqualFold(c.Cache.Kind, "memory") {
		errs = append(errs, errors.New("cache.kind memory cannot be used with the postgres driver: other writers cannot invalidate it (use redis or none)"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if c.RateLimit.GeneratePerWindow < 0 {
		errs = append(errs, errors.New("rate_limit.generate_per_window must not be negative"))
	}
	if c.RateLimit.Window < 0 {
		errs = append(errs, errors.New("rate_limit.window must not be negative"))
	}

	if c.Keys.PrivateKeyExpirationSeconds <= 0 {
		errs = append(errs, errors.New("keys.private_key_expiration_seconds must be positive"))
	}
	if c.Keys.KeyExpirationSeconds <= 0 {
		errs = append(errs, errors.New("keys.key_expiration_seconds must be positive"))
	}
	if c.Keys.RSABits < MinRSABits {
		errs = append(errs, fmt.Errorf("keys.rsa_bits must be at least %d, got %d", MinRSABits, c.Keys.RSABits))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
