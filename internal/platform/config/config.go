package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
//
// Precedence, lowest first: built-in defaults, the YAML file named by CONFIG_FILE, environment
// variables (a .env file in the working directory is loaded into the environment first).
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Mail      MailConfig      `yaml:"mail"`
	Push      PushConfig      `yaml:"push"`
	Geo       GeoConfig       `yaml:"geo"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Itinerary ItineraryConfig `yaml:"itinerary"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
}

type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"databaseURL"`
	MaxConns    int32  `yaml:"maxConns"`
}

type AuthConfig struct {
	// Mode is "jwt" (bearer tokens issued by /auth/login) or "dev" (X-Debug-Subject header).
	Mode              string        `yaml:"mode"`
	Secret            string        `yaml:"secret"`
	Issuer            string        `yaml:"issuer"`
	TokenTTL          time.Duration `yaml:"tokenTTL"`
	DevDefaultSubject string        `yaml:"devDefaultSubject"`
	BcryptCost        int           `yaml:"bcryptCost"`
}

type SearchConfig struct {
	SerpAPIKey     string        `yaml:"serpapiKey"`
	SerpAPIBaseURL string        `yaml:"serpapiBaseURL"`
	ViaCEPBaseURL  string        `yaml:"viacepBaseURL"`
	Timeout        time.Duration `yaml:"timeout"`
}

type MailConfig struct {
	GmailClientID     string        `yaml:"gmailClientID"`
	GmailClientSecret string        `yaml:"gmailClientSecret"`
	GmailRefreshToken string        `yaml:"gmailRefreshToken"`
	GmailUser         string        `yaml:"gmailUser"`
	PollInterval      time.Duration `yaml:"pollInterval"`
	BatchSize         int           `yaml:"batchSize"`
}

// Enabled reports whether Gmail credentials are complete.
func (m MailConfig) Enabled() bool {
	return m.GmailClientID != "" && m.GmailClientSecret != "" && m.GmailRefreshToken != ""
}

type PushConfig struct {
	ExpoAccessToken string        `yaml:"expoAccessToken"`
	ExpoBaseURL     string        `yaml:"expoBaseURL"`
	ChunksPerSecond float64       `yaml:"chunksPerSecond"`
	NotifyInterval  time.Duration `yaml:"notifyInterval"`
	Timezone        string        `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

type GeoConfig struct {
	GoogleMapsAPIKey string `yaml:"googleMapsAPIKey"`
}

type JobsConfig struct {
	// RedisURL enables the distributed job lock; empty means an in-process lock.
	RedisURL string        `yaml:"redisURL"`
	LockTTL  time.Duration `yaml:"lockTTL"`
}

type ItineraryConfig struct {
	RejectPast bool `yaml:"rejectPast"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:              "8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{Backend: "memory", MaxConns: 10},
		Auth: AuthConfig{
			Mode:       "jwt",
			Issuer:     "roteiro",
			TokenTTL:   24 * time.Hour,
			BcryptCost: bcrypt.DefaultCost,
		},
		Search: SearchConfig{
			SerpAPIBaseURL: "https://serpapi.com",
			ViaCEPBaseURL:  "https://viacep.com.br",
			Timeout:        20 * time.Second,
		},
		Mail: MailConfig{
			GmailUser:    "me",
			PollInterval: 5 * time.Minute,
			BatchSize:    10,
		},
		Push: PushConfig{
			ExpoBaseURL:     "https://exp.host",
			ChunksPerSecond: 6,
			NotifyInterval:  24 * time.Hour,
			Timezone:        "America/Sao_Paulo",
		},
		Jobs: JobsConfig{LockTTL: 10 * time.Minute},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads ./.env (when present) into the process environment and then calls LoadFrom(os.LookupEnv).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.LookupEnv)
}

func LoadFrom(lookup LookupFunc) (Config, error) {
	cfg := Defaults()

	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, strings.TrimSpace(path)); err != nil {
			return Config{}, err
		}
	}

	e := envReader{lookup: lookup}
	e.str("PORT", &cfg.HTTP.Port)
	e.str("STORAGE_BACKEND", &cfg.Storage.Backend)
	e.str("DATABASE_URL", &cfg.Storage.DatabaseURL)
	e.integer32("DB_MAX_CONNS", &cfg.Storage.MaxConns)

	e.str("AUTH_MODE", &cfg.Auth.Mode)
	e.str("AUTH_SECRET", &cfg.Auth.Secret)
	e.str("AUTH_ISSUER", &cfg.Auth.Issuer)
	e.dur("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	e.str("AUTH_DEV_DEFAULT_SUBJECT", &cfg.Auth.DevDefaultSubject)
	e.integer("BCRYPT_COST", &cfg.Auth.BcryptCost)

	e.str("SERPAPI_KEY", &cfg.Search.SerpAPIKey)
	e.str("SERPAPI_BASE_URL", &cfg.Search.SerpAPIBaseURL)
	e.str("VIACEP_BASE_URL", &cfg.Search.ViaCEPBaseURL)
	e.dur("SEARCH_TIMEOUT", &cfg.Search.Timeout)

	e.str("GMAIL_CLIENT_ID", &cfg.Mail.GmailClientID)
	e.str("GMAIL_CLIENT_SECRET", &cfg.Mail.GmailClientSecret)
	e.str("GMAIL_REFRESH_TOKEN", &cfg.Mail.GmailRefreshToken)
	e.str("GMAIL_USER", &cfg.Mail.GmailUser)
	e.dur("MAIL_POLL_INTERVAL", &cfg.Mail.PollInterval)
	e.integer("MAIL_BATCH_SIZE", &cfg.Mail.BatchSize)

	e.str("EXPO_ACCESS_TOKEN", &cfg.Push.ExpoAccessToken)
	e.str("EXPO_BASE_URL", &cfg.Push.ExpoBaseURL)
	e.number("PUSH_CHUNKS_PER_SECOND", &cfg.Push.ChunksPerSecond)
	e.dur("NOTIFY_INTERVAL", &cfg.Push.NotifyInterval)
	e.str("NOTIFY_TIMEZONE", &cfg.Push.Timezone)

	e.str("GOOGLE_MAPS_API_KEY", &cfg.Geo.GoogleMapsAPIKey)

	e.str("REDIS_URL", &cfg.Jobs.RedisURL)
	e.dur("JOB_LOCK_TTL", &cfg.Jobs.LockTTL)

	e.boolean("ITINERARY_REJECT_PAST", &cfg.Itinerary.RejectPast)

	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	if e.err != nil {
		return Config{}, e.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.Storage.Backend)
	}

	switch c.Auth.Mode {
	case "dev":
	case "jwt":
		if len(c.Auth.Secret) < 16 {
			return errors.New("AUTH_SECRET must be set (at least 16 bytes) when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", c.Auth.Mode)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.Mail.PollInterval <= 0 {
		return errors.New("MAIL_POLL_INTERVAL must be positive")
	}
	if c.Mail.BatchSize <= 0 {
		return errors.New("MAIL_BATCH_SIZE must be positive")
	}
	if c.Push.NotifyInterval <= 0 {
		return errors.New("NOTIFY_INTERVAL must be positive")
	}
	if c.Push.ChunksPerSecond <= 0 {
		return errors.New("PUSH_CHUNKS_PER_SECOND must be positive")
	}
	loc, err := time.LoadLocation(c.Push.Timezone)
	if err != nil {
		return fmt.Errorf("NOTIFY_TIMEZONE: %w", err)
	}
	c.Push.Location = loc
	if c.Jobs.LockTTL <= 0 {
		return errors.New("JOB_LOCK_TTL must be positive")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("CONFIG_FILE: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("CONFIG_FILE %s: %w", path, err)
	}
	return nil
}

// envReader overlays set, non-empty variables; the first parse error sticks.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) dur(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("%s must be a duration (e.g. 5m): %w", key, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("%s must be an integer: %w", key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) integer32(key string, dst *int32) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			e.err = fmt.Errorf("%s must be an integer: %w", key, err)
			return
		}
		*dst = int32(n)
	}
}

func (e *envReader) number(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.err = fmt.Errorf("%s must be a number: %w", key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.err = fmt.Errorf("%s must be true or false: %w", key, err)
			return
		}
		*dst = b
	}
}
