package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libertyblog/api/internal/container"
	handlers "github.com/libertyblog/api/internal/interface/http"
	"github.com/libertyblog/api/internal/interface/middleware"
	"github.com/libertyblog/api/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)
	confirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/token/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/confirm_email/resend", confirmLimiter, m.Handler.ResendConfirmation)
	rg.POST("/confirm_email/:uid/:token", confirmLimiter, m.Handler.ConfirmEmail)
	rg.POST("/password_reset", resetInitLimiter, m.Handler.ResetInit)
	rg.POST("/password_reset/confirm", resetConfirmLimiter, m.Handler.ResetConfirm)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.PUT("/change_password", m.Handler.ChangePassword)
	}
}
