package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/internal/config"
	httpx "github.com/MikeMehr/patient-intake-2-sub002/internal/http"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/http/handlers"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = container.RedisClient.Ping(ctx).Err()
	cancel()
	if err != nil {
		return err
	}

	inviteH := handlers.NewInviteHandlers(
		container.InvitationSvc,
		container.OTPSvc,
		container.SessionSvc,
		container.AuditSvc,
		container.RateLimiter,
		container.NotificationSvc,
		handlers.InviteRateLimits{
			OTPRequestCap:    3,
			OTPRequestWindow: 10 * time.Minute,
			OTPVerifyCap:     10,
			OTPVerifyWindow:  10 * time.Minute,
		},
		cfg.Production,
	)
	sessionH := handlers.NewSessionHandlers(container.InvitationSvc, container.SessionSvc, container.AuditSvc, cfg.Production)
	adminH := handlers.NewAdminHandlers(container.InvitationSvc, container.AuditSvc)

	r := httpx.BuildRouter(httpx.RouterDeps{
		InviteHandlers:  inviteH,
		SessionHandlers: sessionH,
		AdminHandlers:   adminH,
		SessionSvc:      container.SessionSvc,
		AuditSvc:        container.AuditSvc,
		TokenSvc:        container.StaffTokenSvc,
		RateLimiter:     container.RateLimiter,
	})

	// The composition root owns the background sweep lifecycle.
	if err := container.PurgeSvc.Start(); err != nil {
		return err
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
