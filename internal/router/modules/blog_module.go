package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libertyblog/api/internal/container"
	handlers "github.com/libertyblog/api/internal/interface/http"
	"github.com/libertyblog/api/internal/interface/middleware"
	"github.com/libertyblog/api/pkg/helpers"
)

// BlogModule wires blog CRUD, sharing and search. Everything requires an
// authenticated session.
type BlogModule struct {
	Handler *handlers.BlogHandler
	JWT     *helpers.JWTManager
}

func NewBlogModule(h *handlers.BlogHandler, jwt *helpers.JWTManager) *BlogModule {
	return &BlogModule{Handler: h, JWT: jwt}
}

func (m *BlogModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/blogs", m.Handler.List)
		auth.POST("/blogs", m.Handler.Create)
		auth.GET("/blogs/search", m.Handler.Search)
		auth.GET("/blogs/:id", m.Handler.Get)
		auth.PUT("/blogs/:id", m.Handler.Update)
		auth.PATCH("/blogs/:id", m.Handler.Update)
		auth.DELETE("/blogs/:id", m.Handler.Delete)

		auth.POST("/share", m.Handler.Share)
		auth.GET("/shared-blogs", m.Handler.SharedWithMe)
		auth.GET("/authors-with-access", m.Handler.AuthorsWithAccess)
	}
}
