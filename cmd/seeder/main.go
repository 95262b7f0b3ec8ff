package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/locvowork/employee_records/internal/bootstrap"
	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/logger"
)

func main() {
	// Define flags
	action := flag.String("action", "seed", "Action to perform: seed, clear, reindex")
	preset := flag.String("preset", "medium", "Data preset: small, medium, large")
	count := flag.Int("count", 0, "Number of employees (overrides preset)")
	workers := flag.Int("workers", 0, "Number of insert workers (overrides preset)")
	batch := flag.Int("batch", 500, "Reindex batch size")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt for clear")

	flag.Parse()

	ctx := context.Background()

	fmt.Println("🚀 Employee Data Seeder")
	fmt.Println(strings.Repeat("=", 50))

	// Initialize app
	fmt.Println("📡 Initializing application...")
	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, err, "Failed to initialize application")
		log.Fatal(err)
	}
	defer app.Close()

	seeder := database.NewDataSeeder(app.Repo, app.Index)

	// Execute action
	switch *action {
	case "seed":
		performSeed(ctx, seeder, *preset, *count, *workers)

	case "clear":
		performClear(ctx, seeder, *yes)

	case "reindex":
		n, err := seeder.Reindex(ctx, *batch)
		if err != nil {
			log.Fatalf("❌ Reindex failed: %v", err)
		}
		fmt.Printf("📚 Reindexed %d employees\n", n)

	default:
		fmt.Printf("❌ Unknown action: %s\n", *action)
		flag.PrintDefaults()
		return
	}

	fmt.Println("\n✅ Done!")
}

func performSeed(ctx context.Context, seeder *database.DataSeeder, preset string, count, workers int) {
	numEmployees, numWorkers := database.GetPresetConfig(database.SeedPreset(preset))
	if count > 0 {
		numEmployees = count
	}
	if workers > 0 {
		numWorkers = workers
	}
	fmt.Printf("📊 Seeding %d employees with %d workers (preset: %s)\n", numEmployees, numWorkers, preset)

	n, err := seeder.SeedData(ctx, numEmployees, numWorkers)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	fmt.Printf("👥 Inserted %d employees\n", n)
}

func performClear(ctx context.Context, seeder *database.DataSeeder, yes bool) {
	if !yes {
		fmt.Println("⚠️  This will delete all employees!")
		fmt.Print("Continue? (yes/no): ")

		var response string
		fmt.Scanln(&response)
		if response != "yes" {
			fmt.Println("Cancelled.")
			return
		}
	}

	n, err := seeder.ClearData(ctx)
	if err != nil {
		log.Fatalf("❌ Clear failed: %v", err)
	}
	fmt.Printf("🧹 Deleted %d employees\n", n)
}
