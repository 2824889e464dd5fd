package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/handler"
	"file-storage-server/internal/repository"
	"file-storage-server/internal/security"
	"file-storage-server/internal/service"
	"file-storage-server/internal/storage"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title File-storage-server
// @version 1.0
// @description REST API для хранения файлов с дедупликацией, версиями и правами доступа

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	if err := config.RunMigrations(&cfg.DatabaseConfig); err != nil {
		log.Fatalf("Ошибка применения миграций: %v", err)
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	contentStore, err := storage.NewContentStore(&cfg.Storage)
	if err != nil {
		log.Fatalf("Ошибка подготовки файлового хранилища: %v", err)
	}

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	jwtRepo := repository.NewJWTRepository(db)
	fileRepo := repository.NewFileRepository(db)
	fileMapRepo := repository.NewFileMapRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.Cache)*time.Second)

	jwtService := security.NewJWTService(&cfg.JWT)
	userService := service.NewUserService(userRepo, jwtService, jwtRepo)
	authService := service.NewAuthenticationService(jwtRepo, cfg, jwtService, userRepo)
	fileMapService := service.NewFileMapService(fileMapRepo, fileRepo, directoryRepo, versionRepo, accessRepo, cacheRepo, contentStore)
	versionService := service.NewVersionService(fileMapRepo, fileRepo, versionRepo, accessRepo, cacheRepo, contentStore)
	accessService := service.NewAccessService(fileMapRepo, accessRepo, userRepo, cacheRepo)
	directoryService := service.NewDirectoryService(directoryRepo, cacheRepo)

	authHandler := handler.NewAuthenticationHandler(authService, jwtService, cfg)
	userHandler := handler.NewUserHandler(userService)
	directoryHandler := handler.NewDirectoryHandler(directoryService, fileMapService)
	fileHandler := handler.NewFileHandler(fileMapService, versionService, accessService, contentStore)

	router.Use(config.DBMiddleware(db))
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, jwtService, jwtRepo, cfg)
	setupUserRoutes(router, userHandler, jwtService, jwtRepo, cfg)
	setupDirectoryRoutes(router, directoryHandler, jwtService, jwtRepo, cfg)
	setupFileRoutes(router, fileHandler, jwtService, jwtRepo, cfg)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
			r.Get("/me", h.GetCurrentUser)
			r.Post("/refresh", h.RefreshToken)
		})
		r.Group(func(r chi.Router) {
			r.Post("/", h.Login)
			r.Delete("/{token}", h.Logout)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
			r.Get("/users", h.ListUsers)
		})
	})
}

func setupDirectoryRoutes(r chi.Router, h *handler.DirectoryHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/directories", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))
		r.Get("/", h.ListDirectories)
		r.Post("/", h.CreateDirectory)

		r.Route("/{directoryId}", func(r chi.Router) {
			r.Put("/", h.RenameDirectory)
			r.Delete("/", h.DeleteDirectory)
			r.Get("/files", h.ListDirectoryFiles)
		})
	})
}

func setupFileRoutes(r chi.Router, h *handler.FileHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/files", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService, cfg.Admin.AdminToken))

		r.Post("/upload", h.UploadFile)
		r.Post("/upload/{directoryId}", h.UploadFile)
		r.Get("/search", h.SearchFiles)
		r.Get("/shared", h.ListSharedFiles)

		r.Route("/{fileId}", func(r chi.Router) {
			r.Get("/", h.GetFile)
			r.Put("/", h.UpdateFile)
			r.Delete("/", h.DeleteFile)
			r.Get("/download", h.DownloadFile)

			r.Get("/versions", h.ListVersions)
			r.Post("/versions", h.UploadVersion)
			r.Post("/versions/revert/{versionId}", h.RevertVersion)

			r.Get("/access", h.ListAccess)
			r.Put("/access", h.SetAccess)
			r.Post("/access/remove", h.RemoveAccess)
		})
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
