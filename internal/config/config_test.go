package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	c := Config{
		App:      AppConfig{Env: "local", Port: 8080},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "crm"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Auth:     AuthConfig{JWTSecret: "secret"},
		WhatsApp: WhatsAppConfig{VerifyToken: "verify-me"},
	}
	c.applyDefaults()
	return c
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "WH_VERIFY_TOKEN is required") {
		t.Fatalf("expected verify token error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLModeAndAppSecret(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "production", Port: 8080},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "crm"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Auth:     AuthConfig{JWTSecret: "secret", JWTIssuer: "crm", JWTAudience: "crm"},
		WhatsApp: WhatsAppConfig{VerifyToken: "v"},
	}
	c.applyDefaults()
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "WH_APP_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults_Local(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.WhatsApp.GraphBaseURL != DefaultGraphBaseURL {
		t.Fatalf("unexpected graph url %q", c.WhatsApp.GraphBaseURL)
	}
	if c.WhatsApp.OptOutTemplate != DefaultOptOutTemplate || c.WhatsApp.OptOutTemplateLang != "en_US" {
		t.Fatalf("unexpected opt-out template %q/%q", c.WhatsApp.OptOutTemplate, c.WhatsApp.OptOutTemplateLang)
	}
	if c.WhatsApp.InboundDedupeTTL != 24*time.Hour || c.Dispatch.SendCapTTL != 2*time.Hour {
		t.Fatalf("unexpected ttl defaults: %+v %+v", c.WhatsApp, c.Dispatch)
	}
	if c.Events.Exchange != DefaultExchange {
		t.Fatalf("unexpected exchange %q", c.Events.Exchange)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "crm")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("WH_VERIFY_TOKEN", "tok")
	t.Setenv("NGROK_DOMAIN", "abc.ngrok.app/")
	t.Setenv("SEND_CAP_PER_ORG", "0")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.WhatsApp.PublicBaseURL != "https://abc.ngrok.app" {
		t.Fatalf("unexpected public base url %q", c.WhatsApp.PublicBaseURL)
	}
	if c.Dispatch.SendCapPerOrg != 0 {
		t.Fatalf("expected cap disabled, got %d", c.Dispatch.SendCapPerOrg)
	}
	if c.HTTPAddr() != ":9000" || c.RedisAddr() != "redis:6379" {
		t.Fatalf("unexpected addrs %s %s", c.HTTPAddr(), c.RedisAddr())
	}
}

func TestLoad_RejectsBadPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
