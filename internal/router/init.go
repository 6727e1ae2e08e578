package router

import (
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/router/modules"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

// InitModules builds every feature module from the container singletons and
// registers it. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	ticketRepo := pginfra.NewTicketRepository(container.GetPGPool())

	tickets := application.NewVerificationService(ticketRepo)
	sender := mailer.NewQueueSender(container.GetRabbitPub(), application.TicketTTL)
	auth := application.NewAuthService(userRepo, tickets, sender, container.GetLogger(), cfg.VerifyEmailURL)
	users := application.NewUserService(userRepo, container.GetRedis(), container.GetLogger(), container.GetES(), cfg.ESUsersIndex)

	authHandler := handlers.NewAuthHandler(auth, tickets, container.GetCodec(), container.GetLogger(), cfg.FrontendURL)
	userHandler := handlers.NewUserHandler(users, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewUserModule(userHandler))
}
