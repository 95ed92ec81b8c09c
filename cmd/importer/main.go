package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/IT-Nick/mathquiz/internal/app"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	"github.com/IT-Nick/mathquiz/internal/importer"
	"github.com/IT-Nick/mathquiz/internal/infra/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	file := flag.String("file", "", "modules file (.xlsx, .csv or .json)")
	sheet := flag.String("sheet", "", "sheet name, first sheet by default")
	startRow := flag.Int("start-row", 2, "first data row, 1-based")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := app.InitStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()

	res, err := importer.Import(ctx, modulesService.NewModuleService(storage.Modules), importer.Config{
		FilePath:  *file,
		SheetName: *sheet,
		StartRow:  *startRow,
	})
	if err != nil {
		log.Printf("Import failed: %v", err)
		if res == nil {
			return
		}
	}

	log.Printf("Processed %d rows: %d modules and %d questions created, %d modules skipped",
		res.Processed, res.ModulesCreated, res.QuestionsCreated, res.Skipped)
	for _, e := range res.Errors {
		log.Printf("  %s", e)
	}
}
