package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"irrigation_audit/config"
	"irrigation_audit/database"
	"irrigation_audit/logger"
	"irrigation_audit/metrics"
	"irrigation_audit/models"
	"irrigation_audit/pipeline"
	"irrigation_audit/reference"
	"irrigation_audit/report"
	"irrigation_audit/scanner"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]
	if command == "help" {
		showHelp()
		return
	}

	cfg := loadConfig()
	if err := logger.Init(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Fatalf("Failed to close logging: %v", err)
		}
	}()
	logger.LogCommand(os.Args[0], os.Args)

	switch command {
	case "analyze":
		if len(os.Args) < 3 {
			logger.Fatalf("metering source required\nUsage: irrigation_audit analyze <csv file or directory>\n")
		}
		analyzeCommand(cfg, os.Args[2])
	case "reference:show":
		referenceShowCommand(cfg)
	case "reference:seed":
		if len(os.Args) < 3 {
			logger.Fatalf("reference file required\nUsage: irrigation_audit reference:seed <tables.yaml>\n")
		}
		referenceSeedCommand(cfg, os.Args[2])
	case "connect":
		connectCommand(cfg)
	case "migrate":
		migrateCommand(cfg)
	case "migrate:create":
		if len(os.Args) < 3 {
			logger.Fatalf("migration name required\nUsage: irrigation_audit migrate:create <migration_name>\n")
		}
		createMigrationCommand(cfg, os.Args[2])
	case "migrate:status":
		migrationStatusCommand(cfg)
	case "db:info":
		dbInfoCommand(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
	}
}

func showHelp() {
	fmt.Println("Irrigation Audit - electricity theft risk for irrigation subscribers")
	fmt.Println("")
	fmt.Println("Usage: irrigation_audit <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  analyze <path>         Analyse a metering CSV file or every CSV in a directory")
	fmt.Println("  reference:show         Print the active reference tables as YAML")
	fmt.Println("  reference:seed <file>  Write reference tables from a YAML file into the database")
	fmt.Println("  connect                Test database connection")
	fmt.Println("  migrate                Create reference tables and run pending migrations")
	fmt.Println("  migrate:create <name>  Create a new migration file")
	fmt.Println("  migrate:status         Show migration status")
	fmt.Println("  db:info                Show database information")
	fmt.Println("  help                   Show this help message")
	fmt.Println("")
	fmt.Println("Configuration:")
	fmt.Printf("  Edit %s or set %s to another file\n", config.DefaultPath, config.EnvConfigPath)
	fmt.Println("")
	fmt.Println("CSV File Format:")
	fmt.Println("  ';' separated, ',' decimal separator, UTF-8 with a header row")
	fmt.Println("  Columns: TESİSAT_NO;TARİH;Akım L1;Akım L2;Akım L3;Gerilim L1;Gerilim L2;Gerilim L3")
	fmt.Println("  Timestamp format: dd.mm.yyyy HH:MM:SS (e.g., 01.06.2024 10:00:00)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func analyzeCommand(cfg *config.Config, source string) {
	logger.Printf("Analysing metering source: %s\n", source)

	tables, err := pipeline.LoadReference(cfg)
	if err != nil {
		logger.Fatalf("Failed to load reference tables: %v\n", err)
	}
	logger.Printf("Reference model: %d crop profile(s), %d subscriber profile(s) from %s\n",
		len(tables.Crops), len(tables.Subscribers), cfg.Reference.Source)

	m := metrics.New()
	result, err := pipeline.New(cfg, m).Run(source, tables)
	if err != nil {
		if errors.Is(err, scanner.ErrSourceNotFound) {
			logger.Fatalf("Source not found: %s\n", source)
		}
		logger.Fatalf("Analysis failed: %v\n", err)
	}

	reporter := report.NewReporter(cfg.Report.Title)
	if err := reporter.WriteText(os.Stdout, result.Result); err != nil {
		logger.Fatalf("Failed to write report: %v\n", err)
	}
	if err := reporter.Export(result.Result, cfg.Report, time.Now()); err != nil {
		logger.Fatalf("Export failed: %v\n", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Errorf("Failed to write metrics: %v\n", err)
		}
	}

	logger.LogResult("Analysis", true, fmt.Sprintf("%d reported, %d excluded in %v",
		len(result.Records), len(result.Misses), result.Duration))
}

func referenceShowCommand(cfg *config.Config) {
	tables, err := pipeline.LoadReference(cfg)
	if err != nil {
		logger.Fatalf("Failed to load reference tables: %v\n", err)
	}
	data, err := tables.Marshal()
	if err != nil {
		logger.Fatalf("Failed to encode reference tables: %v\n", err)
	}
	fmt.Print(string(data))
}

func referenceSeedCommand(cfg *config.Config, path string) {
	logger.Printf("Seeding reference tables from %s\n", path)

	tables, err := reference.LoadFile(path)
	if err != nil {
		logger.Fatalf("Failed to load reference file: %v\n", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer database.Close()

	store := database.NewReferenceStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate reference tables: %v\n", err)
	}
	if err := store.Save(tables); err != nil {
		logger.Fatalf("Failed to save reference tables: %v\n", err)
	}

	logger.LogResult("Seed", true, fmt.Sprintf("%d crop profile(s), %d subscriber profile(s)",
		len(tables.Crops), len(tables.Subscribers)))
}

func connectCommand(cfg *config.Config) {
	logger.Println("Testing database connection...")

	if _, err := database.Connect(cfg); err != nil {
		logger.Fatalf("Connection failed: %v\n", err)
	}
	defer database.Close()

	logger.Printf("Successfully connected to %s database\n", cfg.Database.Driver)

	info := database.GetDatabaseInfo(cfg)
	infoJSON, _ := json.MarshalIndent(info, "", "  ")
	logger.Printf("Connection info: %s\n", infoJSON)
}

func migrateCommand(cfg *config.Config) {
	logger.Println("Running database migrations...")

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer database.Close()

	if err := database.NewMigrationRunner(db, cfg).Run(); err != nil {
		logger.Fatalf("Migration failed: %v\n", err)
	}
}

func createMigrationCommand(cfg *config.Config, name string) {
	logger.Printf("Creating migration: %s\n", name)

	// no connection needed to create files
	filePath, err := database.NewMigrationRunner(nil, cfg).CreateMigration(name)
	if err != nil {
		logger.Fatalf("Failed to create migration: %v\n", err)
	}

	logger.Printf("Migration created: %s\n", filePath)
}

func migrationStatusCommand(cfg *config.Config) {
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer database.Close()

	migrations, err := database.NewMigrationRunner(db, cfg).Status()
	if err != nil {
		logger.Fatalf("Failed to get migration status: %v\n", err)
	}

	if len(migrations) == 0 {
		fmt.Println("No migrations found")
		return
	}

	fmt.Printf("%-20s %-40s %s\n", "Version", "Name", "Status")
	fmt.Println(strings.Repeat("-", 67))
	for _, migration := range migrations {
		status := "Pending"
		if migration.Applied {
			status = "Applied"
		}
		fmt.Printf("%-20s %-40s %s\n", migration.Version, migration.Name, status)
	}
}

func dbInfoCommand(cfg *config.Config) {
	fmt.Println("Database Information:")
	fmt.Println(strings.Repeat("=", 50))

	_, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer database.Close()

	info := database.GetDatabaseInfo(cfg)

	fmt.Printf("Database Type:     %v\n", info["driver"])
	fmt.Printf("Connection Status: %v\n", getConnectionStatusText(info["connected"]))

	switch cfg.Database.Driver {
	case "mysql", "postgres":
		fmt.Printf("Host:              %v\n", info["host"])
		fmt.Printf("Port:              %v\n", info["port"])
		fmt.Printf("Database:          %v\n", info["database"])
	case "sqlite":
		fmt.Printf("File Path:         %v\n", info["path"])
	}

	if info["connected"] == true {
		fmt.Println("\nConnection Pool:")
		fmt.Printf("  Max Connections: %v\n", info["max_open_connections"])
		fmt.Printf("  Open Connections:%v\n", info["open_connections"])
		fmt.Printf("  In Use:          %v\n", info["in_use"])
		fmt.Printf("  Idle:            %v\n", info["idle"])

		db := database.GetDB()
		var crops, subscribers int64
		db.Model(&models.CropEnergyProfile{}).Count(&crops)
		db.Model(&models.SubscriberProfile{}).Count(&subscribers)
		fmt.Println("\nReference Tables:")
		fmt.Printf("  Crop Profiles:       %d\n", crops)
		fmt.Printf("  Subscriber Profiles: %d\n", subscribers)
	} else {
		fmt.Println("\nConnection failed - unable to retrieve detailed information")
	}

	fmt.Println(strings.Repeat("=", 50))
}

func getConnectionStatusText(connected interface{}) string {
	if conn, ok := connected.(bool); ok && conn {
		return "Connected"
	}
	return "Disconnected"
}
