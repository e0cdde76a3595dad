package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/digitalocean/registration-wizard/pkg/clients/codebuddy"
	"github.com/digitalocean/registration-wizard/pkg/config"
	"github.com/digitalocean/registration-wizard/pkg/services"
)

var apiURL string

var rootCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Three step registration wizard",
	Long: `wizard collects credentials, profile and contact details in three
validated steps, submits the registration and then shows the latest posts.

Run it as an HTTP service with "wizard serve" or in the terminal with
"wizard register".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "registration API base URL (overrides REGISTRATION_API_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(postsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, then applies the global flags
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.RegistrationAPIURL = apiURL
	}
	return cfg, nil
}

func newServices(cfg *config.Config) (services.RegistrationService, services.PostsService) {
	client := codebuddy.NewClient(cfg.RegistrationAPIURL, cfg.HTTPTimeout)
	return services.NewRegistrationService(client, cfg.StrictSubmit), services.NewPostsService(client)
}
