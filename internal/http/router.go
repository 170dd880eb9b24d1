package httpx

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/http/handlers"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/http/middleware"
)

// RouterDeps carries everything BuildRouter wires together.
type RouterDeps struct {
	InviteHandlers  *handlers.InviteHandlers
	SessionHandlers *handlers.SessionHandlers
	AdminHandlers   *handlers.AdminHandlers
	SessionSvc      domain.SessionService
	AuditSvc        domain.AuditService
	TokenSvc        domain.TokenService
	RateLimiter     domain.RateLimiter
}

func BuildRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Every public mutation entry point is gated by an IP-scoped bucket
	// before any state-changing work; the handlers add invitation-scoped
	// buckets on top.
	invites := r.Group("/invites")
	invites.GET("/:token",
		middleware.RateLimitByIP(deps.RateLimiter, "invite-open", 30, time.Minute),
		deps.InviteHandlers.Open)
	invites.POST("/:token/otp/request",
		middleware.RateLimitByIP(deps.RateLimiter, "invite-otp-request", 10, 10*time.Minute),
		deps.InviteHandlers.RequestOTP)
	invites.POST("/:token/otp/verify",
		middleware.RateLimitByIP(deps.RateLimiter, "invite-otp-verify", 20, 10*time.Minute),
		deps.InviteHandlers.VerifyOTP)

	session := r.Group("/session").Use(middleware.InvitationSession(deps.SessionSvc, deps.AuditSvc))
	session.GET("/invitation", deps.SessionHandlers.GetInvitation)
	session.POST("/submit",
		middleware.RateLimitByIP(deps.RateLimiter, "session-submit", 10, time.Minute),
		deps.SessionHandlers.Submit)

	adm := r.Group("/admin").Use(middleware.StaffAuth(deps.TokenSvc))
	adm.POST("/invitations", deps.AdminHandlers.Create)
	adm.POST("/invitations/:id/revoke", deps.AdminHandlers.Revoke)
	adm.GET("/invitations/:id/audit", deps.AdminHandlers.AuditTrail)

	return r
}
