package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/sandbox"
	"github.com/ds124wfegd/eventhive/internal/transport"
	"github.com/ds124wfegd/eventhive/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// NewHandler builds the seeded in-memory API.
func NewHandler(cfg *config.Config, log logrus.FieldLogger) (http.Handler, error) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	state := sandbox.NewState(cfg.Server.PageSize)
	if err := state.Seed(cfg.Server.AdminEmail, cfg.Server.AdminPassword, cfg.Server.SeedEvents); err != nil {
		return nil, fmt.Errorf("seed sandbox: %w", err)
	}
	tokens := sandbox.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)

	return transport.NewRouter(cfg.Server, state, tokens, log), nil
}

// NewServer runs the sandbox API until SIGINT or SIGTERM.
func NewServer(cfg *config.Config) {
	log := logger.New(cfg.Log, os.Stdout)

	handler, err := NewHandler(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize sandbox: %v", err)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && err != http.ErrServerClosed {
			log.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":      net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		"base_path": cfg.Server.BasePath,
		"admin":     cfg.Server.AdminEmail,
	}).Info("Sandbox API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Sandbox API shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
