package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libertyblog/api/internal/container"
	"github.com/libertyblog/api/internal/domain/repository"
	handlers "github.com/libertyblog/api/internal/interface/http"
	"github.com/libertyblog/api/internal/interface/middleware"
	"github.com/libertyblog/api/pkg/helpers"
)

// UserModule wires profile and account routes.
// Protected: GET/PUT /api/profile, POST /api/profile/avatar, GET /api/users/:id
// Staff only: GET /api/users
type UserModule struct {
	Handler *handlers.UserHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, users repository.UserRepository, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Users: users, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
		auth.GET("/users/:id", m.Handler.Get)
	}

	staff := auth.Group("/")
	staff.Use(middleware.RequireStaff(m.Users))
	{
		staff.GET("/users", m.Handler.List)
	}
}
