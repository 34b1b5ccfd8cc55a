package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/studentworks/freelancer-service/internal/auth"
	"github.com/studentworks/freelancer-service/internal/config"
	"github.com/studentworks/freelancer-service/internal/handler"
	"github.com/studentworks/freelancer-service/internal/jobs"
	"github.com/studentworks/freelancer-service/internal/media"
	"github.com/studentworks/freelancer-service/internal/middleware"
	"github.com/studentworks/freelancer-service/internal/repository"
	"github.com/studentworks/freelancer-service/internal/service"
	"github.com/studentworks/freelancer-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	mediaStore, err := media.NewStore(cfg.UploadDir, cfg.MaxFileSize, logger)
	if err != nil {
		logger.Fatalf("Failed to init media store: %v", err)
	}
	sender := email.NewSender(cfg, logger)
	issuer := auth.NewIssuer(cfg.JWTSecret)
	svc := service.NewService(repo, mediaStore, sender, issuer, logger)
	h := handler.NewHandler(svc, cfg, logger)

	// Periodic cleanup of upload files no user references anymore
	scheduler := cron.New()
	sweeper := jobs.NewSweeper(repo, mediaStore, logger)
	if _, err := scheduler.AddFunc("@hourly", sweeper.Run); err != nil {
		logger.Fatalf("Failed to schedule orphan sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.HandleFunc("/health", h.Health).Methods("GET")

	// Public user routes
	users := r.PathPrefix("/api/users").Subrouter()
	users.HandleFunc("/register", h.Register).Methods("POST")
	users.HandleFunc("/feed", h.Feed).Methods("GET")
	users.HandleFunc("", h.List).Methods("GET")
	users.HandleFunc("/{id:[0-9]+}", h.GetByID).Methods("GET")
	users.HandleFunc("/{id:[0-9]+}", h.Update).Methods("PUT")
	users.HandleFunc("/{id:[0-9]+}", h.Delete).Methods("DELETE")

	// Auth routes
	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/login", h.Login).Methods("POST")
	authRouter.HandleFunc("/logout", h.Logout).Methods("POST")

	// Protected profile routes
	profile := authRouter.PathPrefix("/profile").Subrouter()
	profile.Use(middleware.AuthMiddleware(issuer))
	profile.HandleFunc("", h.Profile).Methods("GET")
	profile.HandleFunc("", h.UpdateProfile).Methods("PUT")

	// Uploaded profile pictures are served statically
	r.PathPrefix("/uploads/profile-pictures/").Handler(
		http.StripPrefix("/uploads/profile-pictures/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
