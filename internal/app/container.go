package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/config"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/auth"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/database"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/notifications"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/repositories"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config

	DB          *gorm.DB
	RedisClient *redis.Client

	InvitationRepo domain.InvitationRepository
	SessionRepo    domain.SessionRepository
	AuditRepo      domain.AuditRepository

	TokenIssuer     domain.TokenIssuer
	CookieCodec     domain.CookieCodec
	StaffTokenSvc   domain.TokenService
	NotificationSvc domain.NotificationService
	RateLimiter     domain.RateLimiter
	OTPSvc          domain.OTPService
	AuditSvc        domain.AuditService
	PurgeSvc        domain.PurgeService
	SessionSvc      domain.SessionService
	InvitationSvc   domain.InvitationService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	container.initRedis()

	if err := container.initServices(); err != nil {
		return nil, err
	}

	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	c.DB = db
	return nil
}

func (c *Container) initRedis() {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB).Client
}

func (c *Container) initServices() error {
	c.InvitationRepo = repositories.NewInvitationRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.DB)
	c.AuditRepo = repositories.NewAuditRepository(c.DB)

	codec, err := auth.NewCookieCodec(c.Config.SessionSecret, c.Config.SessionIssuer, c.Config.SessionAudience)
	if err != nil {
		return err
	}
	c.CookieCodec = codec

	staffTokenSvc, err := auth.NewJWTService(c.Config.StaffJWTSecret, c.Config.StaffJWTIssuer, c.Config.StaffJWTTTL)
	if err != nil {
		return err
	}
	c.StaffTokenSvc = staffTokenSvc

	c.TokenIssuer = auth.NewTokenIssuer(c.Config.InviteTokenTTL)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
		c.Config.FromEmail,
	)
	c.RateLimiter = services.NewRateLimiter(c.RedisClient)

	c.OTPSvc = services.NewOTPService(c.RedisClient, services.OTPConfig{
		Length:      c.Config.OTPLength,
		TTL:         c.Config.OTPTTL,
		MaxAttempts: c.Config.OTPMaxAttempts,
		Cooldown:    c.Config.OTPCooldown,
	})

	c.AuditSvc = services.NewAuditService(c.AuditRepo)
	c.PurgeSvc = services.NewPurgeService(c.InvitationRepo, c.SessionRepo, c.Config.PurgeInterval)

	c.SessionSvc = services.NewSessionService(c.SessionRepo, c.InvitationRepo, c.CookieCodec, services.SessionConfig{
		TTL:      c.Config.SessionTTL,
		Issuer:   c.Config.SessionIssuer,
		Audience: c.Config.SessionAudience,
	})

	c.InvitationSvc = services.NewInvitationService(
		c.InvitationRepo,
		c.TokenIssuer,
		c.NotificationSvc,
		c.PurgeSvc,
		services.InvitationConfig{
			OverallTTL:  c.Config.InviteOverallTTL,
			LinkBaseURL: c.Config.InviteLinkBaseURL,
		},
	)

	return nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.PurgeSvc != nil {
		c.PurgeSvc.Stop()
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
