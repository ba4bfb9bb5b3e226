package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adoptme/pet-adoption/backend/internal/auth"
	"github.com/adoptme/pet-adoption/backend/internal/config"
	"github.com/adoptme/pet-adoption/backend/internal/middleware"
	"github.com/adoptme/pet-adoption/backend/internal/pets"
	"github.com/adoptme/pet-adoption/backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	users := store.NewPostgresStore(pgPool)
	if err := users.Migrate(ctx); err != nil {
		slog.Error("postgres migrate failed", "error", err)
		os.Exit(1)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		slog.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(ctx)
	petStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		slog.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	cache := store.NewListingCache(rdb)

	// ── MinIO ────────────────────────────────────────────────
	photos, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		slog.Error("minio connect failed", "error", err)
		os.Exit(1)
	}

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(users, photos, cfg.JWTSecret, cfg.AdminSecretCode)
	petService := pets.NewService(users, petStore, photos)
	petHandler := pets.NewHandler(petService, users, photos, cache)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Uploaded photos (public, like the old static uploads dir)
	r.Get("/uploads/{object}", petHandler.ServePhoto)

	r.Route("/api", func(r chi.Router) {
		// Open routes
		r.Post("/register/user", authHandler.RegisterUser)
		r.Post("/register/admin", authHandler.RegisterAdmin)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/uploadpet", petHandler.UploadPet)

		// Guarded routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/users", authHandler.Me)
			r.Put("/update-profile", authHandler.UpdateProfile)
			r.Get("/pets", petHandler.AllPets)
			r.Get("/pets/{id}", petHandler.OwnedPets)
			r.Get("/petdetails/{pet_id}", petHandler.PetDetails)
			r.Get("/community", petHandler.Community)
			r.Delete("/deletepet/{id}", petHandler.DeletePet)
			r.With(middleware.RequireAdmin(users)).Delete("/deleteuser/{id}", petHandler.DeleteUser)
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		slog.Info("backend listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
