package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/services"
	"github.com/facualex/portalinmobiliario-etl/utils"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("✗ %v", err)
	}
	cfg := config.Default()
	cfg.Output.WriteLinks = true
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ Invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	comunas, err := services.LoadComunas(cfg.Input.ComunasFile, cfg.Input.ComunaColumn)
	if err != nil {
		log.Fatalf("✗ Failed to read comunas: %v", err)
	}

	log.Printf("╔═══════════════════════════════════════════════════╗")
	log.Printf("║      Portal Inmobiliario Rental Scraper           ║")
	log.Printf("╚═══════════════════════════════════════════════════╝")
	log.Printf("Comunas  : %d (%s)", len(comunas), strings.Join(comunas, ", "))
	log.Printf("Pages    : up to %d per comuna", cfg.Scrape.MaxPages)
	log.Printf("Links    : %s", cfg.Output.LinksFile)
	log.Printf("Output   : %s", cfg.Output.RecordsFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := services.Setup(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("✗ Failed to start scraper: %v", err)
	}

	res, err := rt.Orchestrator.Run(ctx, comunas)
	rt.Close()
	services.PrintSummary(res, cfg.Output.RecordsFile)
	if err != nil {
		log.Fatalf("✗ Run aborted: %v", err)
	}
}
