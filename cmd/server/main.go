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

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/config"
	"github.com/scorewire/cricket-api/internal/events"
	"github.com/scorewire/cricket-api/internal/httpserver"
	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/mail"
	"github.com/scorewire/cricket-api/internal/middleware"
	"github.com/scorewire/cricket-api/internal/repo"
	"github.com/scorewire/cricket-api/internal/search"
	"github.com/scorewire/cricket-api/internal/service"
	"github.com/scorewire/cricket-api/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	issuer := &tokens.Issuer{Secret: cfg.JWTSecret}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, "user_events")
		defer producer.Close()
	}

	authSvc := &service.AuthService{
		Repo:      gormRepo,
		Issuer:    issuer,
		Mailer:    mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		Events:    producer,
		ServerURL: cfg.ServerURL,
	}

	playerSvc := &service.PlayerService{Repo: gormRepo}
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		playerSvc.ES = esClient
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(logging.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHTTP{Svc: authSvc},
		PlayerHandler: &httpserver.PlayerHTTP{Svc: playerSvc},
		Guard:         middleware.NewSessionGuard(issuer, gormRepo),
		SearchEnabled: playerSvc.ES != nil,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
