package router

import (
	"github.com/libertyblog/api/internal/application"
	"github.com/libertyblog/api/internal/container"
	"github.com/libertyblog/api/internal/domain/repository"
	pginfra "github.com/libertyblog/api/internal/infrastructure/postgres"
	"github.com/libertyblog/api/internal/infrastructure/redisstore"
	handlers "github.com/libertyblog/api/internal/interface/http"
	"github.com/libertyblog/api/internal/router/modules"
)

type moduleDeps struct {
	Users repository.UserRepository
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Blog  *handlers.BlogHandler
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	blogRepo := pginfra.NewBlogRepository(container.GetPGPool())
	tokens := redisstore.NewTokenStore(container.GetRedis())

	var pub application.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	userSvc := application.NewUserService(
		userRepo,
		tokens,
		container.GetJWT(),
		container.GetRedis(),
		pub,
		logger,
		cfg,
		container.GetGCS(),
		cfg.GCSBucket,
	)

	policy := application.NewPolicy(userRepo, blogRepo)
	blogSvc := application.NewBlogService(
		blogRepo,
		userRepo,
		policy,
		logger,
		container.GetES(),
		cfg.ESBlogsIndex,
	)

	return moduleDeps{
		Users: userRepo,
		Auth:  handlers.NewAuthHandler(userSvc, logger, cfg, container.GetPGPool()),
		User:  handlers.NewUserHandler(userSvc, logger),
		Blog:  handlers.NewBlogHandler(blogSvc, logger),
	}
}

// InitModules wires all feature modules and registers them with the registry.
// Called once during startup.
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(deps.Auth, jwt))
	r.Add(modules.NewUserModule(deps.User, deps.Users, jwt))
	r.Add(modules.NewBlogModule(deps.Blog, jwt))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
