package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/models"
	"github.com/facualex/portalinmobiliario-etl/services"
	"github.com/facualex/portalinmobiliario-etl/utils"
)

// cliFlags holds the command line. set records which flags were given
// explicitly, so unset ones leave the config file values alone.
type cliFlags struct {
	configPath string
	comunas    string
	maxPages   int
	outFile    string
	linksOut   string
	linksIn    string
	headless   bool
	set        map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	var f cliFlags
	fs.StringVar(&f.configPath, "config", "",
		"YAML configuration file (default: built-in defaults)")
	fs.StringVar(&f.comunas, "comunas", "",
		"Comma-separated comuna slugs to keep from the CSV (default: all)")
	fs.IntVar(&f.maxPages, "pages", 0,
		"Search-result pages to visit per comuna (default from config)")
	fs.StringVar(&f.outFile, "out", "",
		"Records JSON filename (default from config)")
	fs.StringVar(&f.linksOut, "links-out", "",
		"Also write the collected links to this JSON file")
	fs.StringVar(&f.linksIn, "links-in", "",
		"Skip collection and extract records from a saved links file")
	fs.BoolVar(&f.headless, "headless", true,
		"Run Chrome headless (false = visible window; default from config)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// apply overrides cfg with the flags that were given.
func (f cliFlags) apply(cfg *config.Config) {
	if f.set["headless"] {
		cfg.Browser.Headless = f.headless
	}
	if f.maxPages > 0 {
		cfg.Scrape.MaxPages = f.maxPages
	}
	if f.outFile != "" {
		cfg.Output.RecordsFile = f.outFile
	}
	if f.linksOut != "" {
		cfg.Output.LinksFile = f.linksOut
		cfg.Output.WriteLinks = true
	}
	if f.comunas != "" {
		cfg.Input.Only = config.SplitTrim(f.comunas, ",")
	}
}

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("✗ %v", err)
	}
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ Invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	var saved *models.LinkIndex
	var comunas []string
	if flags.linksIn != "" {
		saved, err = utils.ReadLinks(flags.linksIn)
		if err != nil {
			log.Fatalf("✗ Failed to read links: %v", err)
		}
		comunas = saved.Comunas()
	} else {
		comunas, err = resolveComunas(cfg.Input)
		if err != nil {
			log.Fatalf("✗ Failed to read comunas: %v", err)
		}
	}

	log.Printf("╔═══════════════════════════════════════════════════╗")
	log.Printf("║      Portal Inmobiliario Rental Scraper           ║")
	log.Printf("╚═══════════════════════════════════════════════════╝")
	log.Printf("Comunas  : %d (%s)", len(comunas), strings.Join(comunas, ", "))
	if saved != nil {
		log.Printf("Links    : %d from %s", saved.Len(), flags.linksIn)
	} else {
		log.Printf("Pages    : up to %d per comuna", cfg.Scrape.MaxPages)
	}
	log.Printf("Output   : %s", cfg.Output.RecordsFile)
	if cfg.Database.Enabled {
		log.Printf("Postgres : %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := services.Setup(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("✗ Failed to start scraper: %v", err)
	}

	var res services.RunResult
	if saved != nil {
		res, err = rt.Orchestrator.RunFromLinks(ctx, saved)
	} else {
		res, err = rt.Orchestrator.Run(ctx, comunas)
	}
	rt.Close()

	services.PrintSummary(res, cfg.Output.RecordsFile)
	if err != nil {
		log.Fatalf("✗ Run aborted: %v", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

// resolveComunas reads the CSV list and applies the -comunas filter. A
// filter with no CSV available is used as the list itself.
func resolveComunas(in config.InputConfig) ([]string, error) {
	if in.ComunasFile == "" {
		return in.Only, nil
	}
	all, err := services.LoadComunas(in.ComunasFile, in.ComunaColumn)
	if err != nil {
		if len(in.Only) > 0 && errors.Is(err, os.ErrNotExist) {
			return in.Only, nil
		}
		return nil, err
	}
	return services.FilterComunas(all, in.Only), nil
}
