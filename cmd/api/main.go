package main

import (
	"os"

	"github.com/yigit/schoolrecords/internal/pkg/logger"
	"github.com/yigit/schoolrecords/internal/server"
)

// @title School Records API
// @version 1.0
// @description Student records, correction requests and exports for a school administration

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.CloseReporter()

	srv, err := server.NewServer()
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		return 1
	}

	// Blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.ReportError(err, "Server execution failed or shutdown encountered errors", nil)
		return 1
	}

	logger.Info().Msg("Application finished gracefully.")
	return 0
}
