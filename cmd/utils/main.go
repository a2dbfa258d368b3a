package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/appetite/services/seating/cmd/utils/internal/commands"
)

const (
	appName    = "seating-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Same namespace as the service so both read one set of variables.
	config, err := aqm.LoadConfig("SEATING", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := aqm.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed successfully")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Database reset failed: %v", err)
		}
		logger.Info("Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Seating utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo    Book a demo dinner service through the running service
  clear-demo   Release the demo reservations via the service and remove them
  reset-db     Drop the seating database, service must be stopped (USE WITH CAUTION)
  version      Print version information
  help         Show this help message

Environment Variables:
  SEATING_SERVICES_SEATING_URL  Running seating service (default: http://localhost:8080)
  SEATING_DB_MONGO_URL     MongoDB connection URL (default: mongodb://localhost:27017)
  SEATING_DB_MONGO_NAME    Database name (default: appetite_seating)
  SEATING_DEMO_RESTAURANT  Restaurant to book (default: the bootstrap seed restaurant)
  SEATING_DEMO_DATE        Service date YYYY-MM-DD (default: tomorrow)
  SEATING_LOG_LEVEL        Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  SEATING_DEMO_DATE=2025-06-06 %s seed-demo
  %s clear-demo

`, appName, appName, appName, appName, appName)
}
