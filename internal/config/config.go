package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// Values come from the environment (optionally seeded from a .env file by cmd/api).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	WhatsApp WhatsAppConfig
	Dispatch DispatchConfig
	Events   EventsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// WhatsAppConfig covers the Cloud API client and the inbound webhook.
type WhatsAppConfig struct {
	VerifyToken  string
	AppSecret    string
	GraphBaseURL string
	HTTPTimeout  time.Duration

	// PublicBaseURL prefixes relative media paths in template headers.
	PublicBaseURL string

	OptOutTemplate     string
	OptOutTemplateLang string
	InboundDedupeTTL   time.Duration
}

type DispatchConfig struct {
	// SendCapPerOrg bounds concurrently sending campaigns per organization. 0 disables the cap.
	SendCapPerOrg int
	SendCapTTL    time.Duration
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

const (
	DefaultGraphBaseURL   = "https://graph.facebook.com/v21.0"
	DefaultOptOutTemplate = "opt_out_confirmation"
	DefaultExchange       = "crm.events"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = collect(parseErrs)(mustInt("APP_PORT"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = collect(parseErrs)(mustInt("DB_PORT"))
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = collect(parseErrs)(mustInt("REDIS_PORT"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optDuration("JWT_REFRESH_TTL")

	c.WhatsApp.VerifyToken = os.Getenv("WH_VERIFY_TOKEN")
	c.WhatsApp.AppSecret = os.Getenv("WH_APP_SECRET")
	c.WhatsApp.GraphBaseURL = strings.TrimSpace(os.Getenv("WA_GRAPH_BASE_URL"))
	c.WhatsApp.HTTPTimeout = optDuration("WA_HTTP_TIMEOUT")
	c.WhatsApp.PublicBaseURL = publicBaseURL()
	c.WhatsApp.OptOutTemplate = strings.TrimSpace(os.Getenv("OPT_OUT_TEMPLATE"))
	c.WhatsApp.OptOutTemplateLang = strings.TrimSpace(os.Getenv("OPT_OUT_TEMPLATE_LANG"))
	c.WhatsApp.InboundDedupeTTL = optDuration("INBOUND_DEDUPE_TTL")

	if v := strings.TrimSpace(os.Getenv("SEND_CAP_PER_ORG")); v != "" {
		c.Dispatch.SendCapPerOrg, parseErrs = collect(parseErrs)(mustInt("SEND_CAP_PER_ORG"))
	} else {
		c.Dispatch.SendCapPerOrg = 2
	}
	c.Dispatch.SendCapTTL = optDuration("SEND_CAP_TTL")

	c.Events.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	c.Events.Exchange = strings.TrimSpace(os.Getenv("AMQP_EXCHANGE"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults fills optional values. Production must set DB_SSLMODE explicitly.
func (c *Config) applyDefaults() {
	if c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = "disable"
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.WhatsApp.GraphBaseURL == "" {
		c.WhatsApp.GraphBaseURL = DefaultGraphBaseURL
	}
	if c.WhatsApp.HTTPTimeout <= 0 {
		c.WhatsApp.HTTPTimeout = 15 * time.Second
	}
	if c.WhatsApp.OptOutTemplate == "" {
		c.WhatsApp.OptOutTemplate = DefaultOptOutTemplate
	}
	if c.WhatsApp.OptOutTemplateLang == "" {
		c.WhatsApp.OptOutTemplateLang = "en_US"
	}
	if c.WhatsApp.InboundDedupeTTL <= 0 {
		c.WhatsApp.InboundDedupeTTL = 24 * time.Hour
	}
	if c.Dispatch.SendCapTTL <= 0 {
		c.Dispatch.SendCapTTL = 2 * time.Hour
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = DefaultExchange
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if !validPort(c.App.Port) {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if !validPort(c.DB.Port) {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		errs = append(errs, errors.New("DB_SSLMODE is required in production"))
	} else if !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if !validPort(c.Redis.Port) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
		if c.WhatsApp.AppSecret == "" {
			errs = append(errs, errors.New("WH_APP_SECRET is required in production"))
		}
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.WhatsApp.VerifyToken == "" {
		errs = append(errs, errors.New("WH_VERIFY_TOKEN is required"))
	}
	if u, err := url.Parse(c.WhatsApp.GraphBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("WA_GRAPH_BASE_URL must be an absolute URL, got %q", c.WhatsApp.GraphBaseURL))
	}
	if c.Dispatch.SendCapPerOrg < 0 {
		errs = append(errs, fmt.Errorf("SEND_CAP_PER_ORG must be >= 0, got %d", c.Dispatch.SendCapPerOrg))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// PostgresDSN is a libpq keyword/value string accepted by pgxpool.ParseConfig.
// Avoid logging it; it contains secrets.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// publicBaseURL prefers PUBLIC_BASE_URL; a bare NGROK_DOMAIN is promoted to https.
func publicBaseURL() string {
	if v := strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	d := strings.TrimSpace(os.Getenv("NGROK_DOMAIN"))
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
		d = "https://" + d
	}
	return strings.TrimRight(d, "/")
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optDuration returns 0 for unset or unparsable values so defaults apply.
func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func collect(errs []error) func(int, error) (int, []error) {
	return func(n int, err error) (int, []error) {
		if err != nil {
			errs = append(errs, err)
		}
		return n, errs
	}
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
