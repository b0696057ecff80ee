// Submission intake API.
//
// POST /api/v1/auth/register      # register (public)
// POST /api/v1/auth/login         # login (public)
// GET  /api/v1/health             # liveness (public)
// POST /api/v1/submissions        # submit a record (auth)
// GET  /api/v1/submissions        # list records (auth)
// GET  /api/v1/submissions/{id}   # fetch a record (auth)
// GET  /api/v1/forms              # list form schemas (auth)
// GET  /api/v1/forms/{id}         # fetch a form schema (auth)
// PUT  /api/v1/forms              # publish a form schema (auth)
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	formAPI "fieldsync/internal/app/server/api/http/form"
	healthAPI "fieldsync/internal/app/server/api/http/health"
	"fieldsync/internal/app/server/api/http/middleware"
	"fieldsync/internal/app/server/api/http/middleware/auth"
	"fieldsync/internal/app/server/api/http/middleware/logger"
	submissionAPI "fieldsync/internal/app/server/api/http/submission"
	userAPI "fieldsync/internal/app/server/api/http/user"
	"fieldsync/internal/domain/form"
	"fieldsync/internal/domain/session"
	"fieldsync/internal/domain/submission"
	"fieldsync/internal/domain/user"
	"fieldsync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health     *healthAPI.Handler
	User       *userAPI.Handler
	Submission *submissionAPI.Handler
	Form       *formAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.
func New(storage *postgres.Storage, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("FieldSync API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(storage, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Submission.SetupRoutes(API)
	h.Form.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, log *slog.Logger) *Handlers {
	sessionRepo := postgres.NewSessionRepository(storage.Pool(), log)
	sessionService := session.NewService(sessionRepo, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(storage.Pool(), log)
	userService := user.NewService(userRepo, log)
	middlewares.Add(loggerMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, middlewares.GetAllAndClear())

	submissionRepo := postgres.NewSubmissionRepository(storage.Pool(), log)
	submissionService := submission.NewService(submissionRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	submissionHandler := submissionAPI.NewHandler(submissionService, log, middlewares.GetAllAndClear())

	formRepo := postgres.NewFormRepository(storage.Pool(), log)
	formService := form.NewService(formRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	formHandler := formAPI.NewHandler(formService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:     healthHandler,
		User:       userHandler,
		Submission: submissionHandler,
		Form:       formHandler,
	}
}
