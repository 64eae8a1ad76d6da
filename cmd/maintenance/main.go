package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"resourceroom/internal/app"
	"resourceroom/internal/config"
	"resourceroom/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate-groups", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path, or - for stdout (default: roster_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		stores := openStores(ctx, cfg)
		defer stores.Close(ctx)
		exportService := service.NewExportService(stores.Teachers, stores.Students, stores.Goals, cfg.Location())
		handleExport(ctx, exportService, *exportOutput)

	case "migrate-groups":
		migrateCmd.Parse(os.Args[2:])
		stores := openStores(ctx, cfg)
		defer stores.Close(ctx)
		handleMigrateGroups(ctx, stores)

	default:
		printUsage()
		os.Exit(1)
	}
}

func openStores(ctx context.Context, cfg *config.Config) *app.Stores {
	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	return stores
}

func handleExport(ctx context.Context, exportService *service.ExportService, outputPath string) {
	if outputPath == "-" {
		if err := exportService.ExportToWriter(ctx, os.Stdout); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("roster_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting roster to: %s", outputPath)
	if err := writeExport(ctx, exportService, outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Printf("Export complete! File size: %.2f KB", float64(fileInfo.Size())/1024)
	}
}

func writeExport(ctx context.Context, exportService *service.ExportService, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := exportService.ExportToWriter(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func handleMigrateGroups(ctx context.Context, stores *app.Stores) {
	teachers, err := stores.Teachers.ListActive(ctx)
	if err != nil {
		log.Fatalf("Failed to list teachers: %v", err)
	}

	studentService := service.NewStudentService(stores.Students)
	total := 0
	for _, t := range teachers {
		count, err := studentService.MigrateLegacyGroups(ctx, t.ID)
		if err != nil {
			log.Fatalf("Migration failed for teacher %s: %v", t.Username, err)
		}
		total += count
	}

	log.Printf("Migration complete! Updated %d students across %d teachers", total, len(teachers))
}

func printUsage() {
	fmt.Println("Resource Room Maintenance Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  maintenance export [options]     Export teachers, students and goals to JSON")
	fmt.Println("  maintenance migrate-groups       Rewrite legacy student groups for every teacher")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path, or - for stdout (default: roster_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE           Storage: sqlite, postgres, pgx, mysql or mongodb (default: sqlite)")
	fmt.Println("  DB_PATH           SQLite database path (default: ./resourceroom.db)")
	fmt.Println("  DATABASE_URL      PostgreSQL or MySQL connection URL")
	fmt.Println("  MONGODB_URI       MongoDB connection URI")
	fmt.Println("  MONGODB_DATABASE  MongoDB database name (default: resource-room)")
}
