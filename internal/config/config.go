package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

type AppConfig struct {
	Port       int    `yaml:"port"`
	GinMode    string `yaml:"gin_mode"`
	Production bool   `yaml:"production"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	TTL      string `yaml:"ttl"`
}

type InvitationConfig struct {
	TokenTTL    string `yaml:"token_ttl"`
	OverallTTL  string `yaml:"overall_ttl"`
	LinkBaseURL string `yaml:"link_base_url"`
}

type OTPConfig struct {
	TTL         string `yaml:"ttl"`
	Length      int    `yaml:"length"`
	MaxAttempts int    `yaml:"max_attempts"`
	Cooldown    string `yaml:"cooldown"`
}

type StaffJWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	FromEmail  string `yaml:"from_email"`
}

type PurgeConfig struct {
	Interval string `yaml:"interval"`
}

type ConfigFile struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Invitation InvitationConfig `yaml:"invitation"`
	OTP        OTPConfig        `yaml:"otp"`
	StaffJWT   StaffJWTConfig   `yaml:"staff_jwt"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Purge      PurgeConfig      `yaml:"purge"`
}

type Config struct {
	Port       string
	GinMode    string
	Production bool

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret   string
	SessionIssuer   string
	SessionAudience string
	SessionTTL      time.Duration

	InviteTokenTTL    time.Duration
	InviteOverallTTL  time.Duration
	InviteLinkBaseURL string

	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	OTPCooldown    time.Duration

	StaffJWTSecret string
	StaffJWTIssuer string
	StaffJWTTTL    time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	FromEmail   string

	PurgeInterval time.Duration
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	sessionTTL, err := time.ParseDuration(configFile.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}
	tokenTTL, err := time.ParseDuration(configFile.Invitation.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid invitation token TTL: %w", err)
	}
	overallTTL, err := time.ParseDuration(configFile.Invitation.OverallTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid invitation overall TTL: %w", err)
	}
	otpTTL, err := time.ParseDuration(configFile.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}
	cooldown, err := time.ParseDuration(configFile.OTP.Cooldown)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP cooldown: %w", err)
	}
	staffTTL, err := time.ParseDuration(configFile.StaffJWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid staff JWT TTL: %w", err)
	}
	purgeInterval, err := time.ParseDuration(configFile.Purge.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid purge interval: %w", err)
	}

	cfg := &Config{
		Port:       fmt.Sprintf("%d", configFile.App.Port),
		GinMode:    configFile.App.GinMode,
		Production: configFile.App.Production,

		DSN:           env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:     env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:       configFile.Redis.DB,

		SessionSecret:   env("SESSION_SIGNING_SECRET", configFile.Session.Secret),
		SessionIssuer:   env("SESSION_ISSUER", configFile.Session.Issuer),
		SessionAudience: env("SESSION_AUDIENCE", configFile.Session.Audience),
		SessionTTL:      sessionTTL,

		InviteTokenTTL:    tokenTTL,
		InviteOverallTTL:  overallTTL,
		InviteLinkBaseURL: env("INVITE_LINK_BASE_URL", configFile.Invitation.LinkBaseURL),

		OTPTTL:         otpTTL,
		OTPLength:      configFile.OTP.Length,
		OTPMaxAttempts: configFile.OTP.MaxAttempts,
		OTPCooldown:    cooldown,

		StaffJWTSecret: env("STAFF_JWT_SECRET", configFile.StaffJWT.Secret),
		StaffJWTIssuer: configFile.StaffJWT.Issuer,
		StaffJWTTTL:    staffTTL,

		TwilioSID:   env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:  configFile.Twilio.FromNumber,
		FromEmail:   configFile.Twilio.FromEmail,

		PurgeInterval: purgeInterval,
	}

	// Fail closed: the signed-cookie machinery is unusable without its
	// secret and claim constants, so absence is a startup error, never a
	// silent default.
	switch {
	case cfg.SessionSecret == "":
		return nil, domain.ErrMissingSigningSecret
	case cfg.SessionIssuer == "":
		return nil, domain.ErrMissingIssuer
	case cfg.SessionAudience == "":
		return nil, domain.ErrMissingAudience
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
