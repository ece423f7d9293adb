package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/mlechner/polier/internal/cli"
	"github.com/mlechner/polier/internal/db"
	"github.com/mlechner/polier/internal/intelligence"
	"github.com/mlechner/polier/internal/llm"
	"github.com/mlechner/polier/internal/pipeline"
	"github.com/mlechner/polier/internal/repository"
	"github.com/mlechner/polier/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	dbPath := os.Getenv("POLIER_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".polier", "polier.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	tenantRepo := repository.NewSQLiteTenantRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)
	phaseRepo := repository.NewSQLitePhaseRepo(database)
	hoursRepo := repository.NewSQLiteHoursRepo(database)
	snapshotRepo := repository.NewSQLiteSnapshotRepo(database)
	insightRepo := repository.NewSQLiteInsightRepo(database)

	llmCfg := llm.LoadConfig()
	var llmClient llm.Client
	if llmCfg.Enabled {
		var observer llm.Observer = llm.NoopObserver{}
		if llmCfg.LogCalls {
			observer = llm.NewLogObserver(os.Stderr)
		}
		llmClient = llm.NewOllamaClient(llmCfg, observer)
	}
	narratives := intelligence.NewNarrativeService(llmClient, llmCfg.Enabled)

	weatherProvider := weather.NewHTTPProvider(os.Getenv("POLIER_WEATHER_ENDPOINT"))

	runObserver := pipeline.NewLogRunObserver(os.Stderr)
	snapshotSvc := pipeline.NewSnapshotService(tenantRepo, phaseRepo, hoursRepo, snapshotRepo, runObserver)
	insightSvc := pipeline.NewInsightService(tenantRepo, projectRepo, phaseRepo, hoursRepo,
		snapshotRepo, insightRepo, narratives, weatherProvider, runObserver)
	refreshSvc := pipeline.NewRefreshService(tenantRepo, snapshotSvc, insightSvc, runObserver)

	app := &cli.App{
		Snapshots:    snapshotSvc,
		Insights:     insightSvc,
		Refresh:      refreshSvc,
		Tenants:      tenantRepo,
		Projects:     projectRepo,
		Phases:       phaseRepo,
		Hours:        hoursRepo,
		InsightStore: insightRepo,
		Interactive:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	return cli.NewRootCmd(app).Execute()
}
