package main

import (
	"log"
	"os"

	"einvoice/cmd"
	"einvoice/internal/config"
	"einvoice/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Commands report configuration errors themselves; the logger
		// falls back to defaults until then.
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting E-Invoice CLI")

	cmd.Execute()

	log.Debug().Msg("E-Invoice CLI shutdown")
	os.Exit(0)
}
