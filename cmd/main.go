package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"photodrive/internal/auth"
	"photodrive/internal/config"
	"photodrive/internal/handler"
	"photodrive/internal/repository"
	"photodrive/internal/service"
	"photodrive/internal/service/storage"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		log.Printf("Found dirty database state at version %d, attempting to force version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаемся к базе данных
	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Инициализация объектного хранилища
	storageConfig, err := storage.NewConfig(".s3.env")
	if err != nil {
		log.Fatalf("Failed to load storage config: %v", err)
	}
	store, err := storage.NewClient(storageConfig)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	// Инициализация аутентификации
	authConfig, err := auth.NewConfig(".auth.env")
	if err != nil {
		log.Fatalf("Failed to load auth config: %v", err)
	}
	tokens, err := auth.NewTokenService(authConfig.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}
	google := auth.NewGoogleProvider(
		authConfig.GoogleClientID,
		authConfig.GoogleClientSecret,
		authConfig.GoogleRedirectURL,
	)

	// Инициализация репозиториев
	userRepo := repository.NewUserRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	imageRepo := repository.NewImageRepository(db)
	trashRepo := repository.NewTrashRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Инициализация сервисов
	userService := service.NewUserService(userRepo, google, tokens)
	albumService := service.NewAlbumService(albumRepo, imageRepo, trashRepo)
	imageService := service.NewImageService(imageRepo, albumRepo, trashRepo, store)
	trashService := service.NewTrashService(trashRepo, albumRepo, imageRepo, store)
	statsService := service.NewStatsService(statsRepo, userRepo, albumRepo)

	// Инициализация хендлеров
	authHandler := handler.NewAuthHandler(userService, appConfig.Server.BaseURL)
	userHandler := handler.NewUserHandler(userService, statsService)
	albumHandler := handler.NewAlbumHandler(albumService, statsService)
	imageHandler := handler.NewImageHandler(imageService, store)
	trashHandler := handler.NewTrashHandler(trashService)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", authHandler.GoogleLogin)
			r.Get("/google/callback", authHandler.GoogleCallback)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", userHandler.Profile)
				r.Put("/profile", userHandler.Update)
			})

			r.Route("/albums", func(r chi.Router) {
				r.Get("/", albumHandler.List)
				r.Post("/", albumHandler.Create)

				r.Route("/{albumID}", func(r chi.Router) {
					r.Get("/", albumHandler.Get)
					r.Patch("/", albumHandler.Update)
					r.Delete("/", albumHandler.Delete)
					r.Get("/images", albumHandler.Images)
					r.Get("/stats", albumHandler.Stats)
					r.Put("/favorite", albumHandler.Favorite)
					r.Post("/restore", albumHandler.Restore)
					r.Post("/share", albumHandler.Share)
					r.Delete("/share", albumHandler.Unshare)
				})
			})

			r.Route("/images", func(r chi.Router) {
				r.Get("/", imageHandler.List)
				r.Post("/", imageHandler.Upload)
				r.Get("/recent", imageHandler.Recent)
				r.Get("/favorites", imageHandler.Favorites)
				r.Post("/delete", imageHandler.DeleteMany)

				r.Route("/{imageID}", func(r chi.Router) {
					r.Get("/", imageHandler.Get)
					r.Patch("/", imageHandler.Update)
					r.Delete("/", imageHandler.Delete)
					r.Put("/favorite", imageHandler.Favorite)
					r.Post("/comments", imageHandler.Comment)
					r.Post("/restore", imageHandler.Restore)
				})
			})

			r.Route("/trash", func(r chi.Router) {
				r.Get("/", trashHandler.List)
				r.Post("/empty", trashHandler.Empty)
				r.Post("/cleanup", trashHandler.Cleanup)
				r.Delete("/albums/{albumID}", trashHandler.PurgeAlbum)
				r.Delete("/images/{imageID}", trashHandler.PurgeImage)
			})
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем HTTP сервер
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Фоновая очистка корзины по истечении окна хранения
	sweepTicker := time.NewTicker(1 * time.Hour)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sweepTicker.C:
				report, err := trashService.Sweep(context.Background())
				if err != nil {
					log.Printf("Error during trash sweep: %v", err)
				}
				if report != nil && (report.AlbumsPurged > 0 || report.ImagesPurged > 0) {
					log.Printf("Trash sweep purged %d albums and %d images (%d store failures)",
						report.AlbumsPurged, report.ImagesPurged, report.StoreDeleteFailures)
				}
			case <-done:
				sweepTicker.Stop()
				return
			}
		}
	}()

	// Ожидаем сигнал завершения
	<-quit
	close(done)
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}
