package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vectorforge/canvas/internal/asset"
	"github.com/vectorforge/canvas/internal/auth"
	"github.com/vectorforge/canvas/internal/collab"
	"github.com/vectorforge/canvas/internal/config"
	"github.com/vectorforge/canvas/internal/library"
	"github.com/vectorforge/canvas/internal/logger"
	mw "github.com/vectorforge/canvas/internal/middleware"
	"github.com/vectorforge/canvas/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Production: cfg.Production(),
		FilePath:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	authService := auth.NewService(db, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService, log.Named("auth"))

	libraryService := library.NewService(db)
	libraryHandler := library.NewHandler(libraryService, log.Named("library"))

	persist := collab.NewPersistence(db, cfg.DocumentTTL)
	libraryService.OnDelete(persist.Forget)

	hub := collab.NewHub(persist, log.Named("collab"), cfg.SaveInterval)
	wsHandler := collab.NewHandler(hub, authService, libraryService, cfg.OriginPatterns(), log.Named("ws"))

	assetHandler, err := asset.NewHandler(cfg.AssetDir, log.Named("asset"))
	if err != nil {
		return err
	}

	r := mux.NewRouter()
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log.Named("http")))
	r.Use(mw.CORS(mw.SplitOrigins(cfg.AllowedOrigins)))

	r.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// Assets are public so the playground can place bitmaps too.
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods(http.MethodPost, http.MethodOptions)
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/documents", libraryHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/documents", libraryHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/documents/{documentId}", libraryHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/documents/{documentId}", libraryHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{documentId}/snapshots/latest", libraryHandler.GetLatestSnapshot).Methods(http.MethodGet)

	r.Handle("/ws/document/{documentId}", wsHandler).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
