package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/config"
	"github.com/klass-lk/postboard/internal/controller"
	"github.com/klass-lk/postboard/internal/service"
	"github.com/klass-lk/postboard/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize store
	postStore, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()

	if err := postStore.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize post collection: %v", err)
	}

	postService := service.NewPostService(postStore)

	// Initialize server
	server := postboard.New()
	server.SetHost(cfg.Server.Host)
	if cfg.Server.Runtime != "" {
		server.SetRuntime(postboard.Runtime(cfg.Server.Runtime))
	}
	server.DefaultSecureHeaders()
	if len(cfg.Server.CORSOrigins) > 0 {
		server.CustomCORS(
			cfg.Server.CORSOrigins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Origin", "Content-Type", "Accept", postboard.RequestIDHeader},
			12*time.Hour,
		)
	}

	if err := controller.Register(server, postService); err != nil {
		log.Fatalf("failed to register controllers: %v", err)
	}

	log.Printf("serving posts from the %s store on %s:%d", backendName(cfg.Store.Backend), cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}

func backendName(backend string) string {
	if backend == "" {
		return store.BackendFile
	}
	return backend
}
