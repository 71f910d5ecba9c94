package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"project-tracker/backend/internal/config"
	"project-tracker/backend/internal/database"
	"project-tracker/backend/internal/handlers"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/storage"
	"project-tracker/backend/internal/store"
	"project-tracker/backend/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Could not initialize logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	disk, err := storage.NewDisk(cfg.StorageRoot)
	if err != nil {
		logger.Fatal("storage setup failed", zap.Error(err))
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	st := store.NewPostgres(pool)
	projectHandler := handlers.NewProjectHandler(st, disk, hub, logger)
	authHandler := handlers.NewAuthHandler(st, cfg.JWTSecret, logger)
	eventsHandler := handlers.NewEventsHandler(hub, cfg.JWTSecret, logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws/projects", eventsHandler.ServeWs)
	r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(disk.Root()))))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.Index)
				r.Post("/", projectHandler.Store)
				r.Get("/new", projectHandler.New)

				r.Route("/{projectID}", func(r chi.Router) {
					r.Use(middleware.ProjectCtx(st))
					r.Get("/", projectHandler.Show)
					r.Get("/edit", projectHandler.Edit)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Destroy)
				})
			})
		})
	})

	logger.Info("starting server", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
