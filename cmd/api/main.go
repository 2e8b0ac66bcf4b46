package main

import (
	"os"

	"github.com/samenactief/backend/internal/pkg/logger"
	"github.com/samenactief/backend/internal/server"
)

// @title SamenActief API
// @version 1.0
// @description Activity registration for neighborhood community centers: seats, waitlists and reminders
// @termsOfService http://swagger.io/terms/

// @contact.name SamenActief Support
// @contact.email support@samenactief.nl

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup functions log their own details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
