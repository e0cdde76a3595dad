package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/digitalocean/registration-wizard/pkg/api"
	"github.com/digitalocean/registration-wizard/pkg/middleware"
	"github.com/digitalocean/registration-wizard/pkg/session"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wizard over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	ctx := cmd.Context()
	registration, posts := newServices(cfg)

	sessions := session.NewManager(registration, posts, cfg.SessionTTL)
	defer sessions.Close()
	go sessions.Run(ctx, cfg.SessionSweepEvery)

	gin.SetMode(cfg.GinMode)

	// Create a new Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins...))

	handlers := api.NewHandlers(sessions)
	handlers.Register(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Error starting server: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
