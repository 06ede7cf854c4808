package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/api"
	"github.com/rkuzmin/streamhub/internal/auth"
	"github.com/rkuzmin/streamhub/internal/blobstore"
	"github.com/rkuzmin/streamhub/internal/catalog"
	"github.com/rkuzmin/streamhub/internal/config"
	"github.com/rkuzmin/streamhub/internal/database"
	"github.com/rkuzmin/streamhub/internal/events"
	"github.com/rkuzmin/streamhub/internal/media"
	"github.com/rkuzmin/streamhub/internal/storage"
	"github.com/rkuzmin/streamhub/internal/upload"
	"github.com/rkuzmin/streamhub/internal/userdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	log.Printf("Running database migrations from %s", cfg.MigrationsPath)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var objects storage.Storage
	switch cfg.StorageBackend {
	case "minio":
		objects, err = storage.NewMinioStorage(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL,
		)
	default:
		objects, err = storage.NewLocalStorage(cfg.UploadDir)
	}
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: redis unavailable, continuing without it: %v", err)
			rdb = nil
		}
	}

	signer := blobstore.NewURLSigner(cfg.SigningSecret, cfg.PlaybackTTL)
	store := blobstore.New(objects, database.NewStoredVideoRepository(db), signer, cfg.QuotaBytes)

	var cat catalog.Service
	if cfg.DemoMode {
		log.Println("Demo mode: serving a seeded in-memory catalog")
		cat = catalog.NewSeededMemService()
	} else {
		cat = catalog.NewDBService(database.NewCatalogRepository(db), catalog.NewEntryCache(rdb))
	}

	var prober media.Prober
	if cfg.ProbeEnabled {
		ffmpeg, err := media.NewFFmpegProber()
		if err != nil {
			log.Printf("Warning: media probing disabled: %v", err)
		} else {
			prober = ffmpeg
		}
	}

	hub := events.NewHub()
	defer hub.Close()

	authSvc := auth.NewService(
		database.NewUserRepository(db),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry),
	)

	app := &api.App{
		Store:         store,
		Signer:        signer,
		Catalog:       cat,
		Auth:          authSvc,
		Pipeline:      upload.New(store, cat, prober, hub, cfg.MaxUploadBytes, cfg.ProbeTimeout),
		Hub:           hub,
		MaxUploadSize: cfg.MaxUploadBytes,
	}
	if rdb != nil {
		app.UserData = userdata.NewService(rdb)
	}

	router := api.NewRouter(app, rdb)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Storage backend: %s", cfg.StorageBackend)
	log.Printf("Database type: %s", cfg.DBType)
	log.Printf("Max upload size: %d bytes", cfg.MaxUploadBytes)
	if cfg.QuotaBytes > 0 {
		log.Printf("Storage quota: %d bytes", cfg.QuotaBytes)
	}

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
