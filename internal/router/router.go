package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/account"
	accountrepo "github.com/ovaphlow/pitchfork/service-guestbook-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/message"
	messagerepo "github.com/ovaphlow/pitchfork/service-guestbook-go/internal/message/repo"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/mailer"
)

// RegisterRoutes wires repositories, services and handlers and mounts the
// HTTP surface on a chi router. All dependencies are passed in explicitly;
// there is no package-level state.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, mail mailer.Sender, baseURL string) http.Handler {
	store := database.NewStore(db)

	accountSvc := account.NewService(logger, accountrepo.NewAccountRepo(store), mail, nil)
	accountHandler := account.NewHandler(accountSvc, logger, baseURL)

	messageSvc := message.NewService(logger, messagerepo.NewMessageRepo(store))
	messageHandler := message.NewHandler(messageSvc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger))
	r.Use(SecurityHeadersMiddleware())

	// health
	r.Get("/guestbook-api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// open routes
	r.Get("/activate", accountHandler.Activate)
	r.Post("/register", accountHandler.Register)
	r.Get("/messages/most_upvoted", messageHandler.MostUpvoted)

	// authenticated routes
	r.Group(func(pr chi.Router) {
		pr.Use(BasicAuthMiddleware(accountSvc))
		pr.Get("/messages", messageHandler.List)
		pr.Post("/messages", messageHandler.Create)
		pr.Get("/messages/search", messageHandler.Search)
		pr.Get("/messages/{id}", messageHandler.Get)
		pr.Patch("/messages/{id}", messageHandler.Update)
		pr.Delete("/messages/{id}", messageHandler.Delete)
		pr.Post("/messages/{id}/upvote", messageHandler.Upvote)
	})

	return r
}
