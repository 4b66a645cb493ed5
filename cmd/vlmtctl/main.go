// main.go - Admin control tool for the attribution service
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adima959/vl-marketing-tool-sub006/internal"
	"github.com/adima959/vl-marketing-tool-sub006/internal/seeder"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&RetentionCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	// Parse global flags
	flag.Parse()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Set up context with cancellation for cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals in a separate goroutine
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	// Parse command and arguments
	cmdName, args := parseArgs()

	// Find the requested command
	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// Ensure app is cleaned up
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Cleanup error: %v", err)
		}
	}()

	// Execute the command
	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// MigrateCommand runs migrations on both stores
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs migrations on both stores" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")

	if err := app.Tracker.MigrateDatabase(); err != nil {
		return fmt.Errorf("tracker migration failed: %w", err)
	}
	if err := app.CRM.MigrateDatabase(); err != nil {
		return fmt.Errorf("crm migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates both stores with demo data
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds both stores with demo visits and orders" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	visitors := fs.Int("visitors", 2000, "number of visitors to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	se := seeder.NewSeeder(app.Tracker.GetConnection(), app.CRM.GetConnection(), slog.Default(), *visitors)
	return se.Run(ctx)
}

// RetentionCommand trims visits past the retention window right now
type RetentionCommand struct{}

func (c *RetentionCommand) Name() string        { return "retention" }
func (c *RetentionCommand) Description() string { return "Deletes tracker visits past the retention window" }

func (c *RetentionCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	return app.Jobs.RunRetentionNow()
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	trackerDB := app.Tracker.GetConnection()

	var visitCount int64
	if err := trackerDB.Model(&visits.Visit{}).Count(&visitCount).Error; err != nil {
		return fmt.Errorf("tracker store error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Tracker store: Connected")
	log.Printf("- Visits: %d", visitCount)

	sqlDB, err := trackerDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	if err := app.CRM.GetConnection().Exec("SELECT 1").Error; err != nil {
		log.Printf("- CRM store: unreachable (%v)", err)
		return nil
	}
	log.Println("- CRM store: Connected")

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// Helper functions

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: vlmtctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
