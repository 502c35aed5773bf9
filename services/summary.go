package services

import (
	"fmt"
	"log"

	"github.com/facualex/portalinmobiliario-etl/utils"
)

// PrintSummary logs the end-of-run report.
func PrintSummary(res RunResult, recordsFile string) {
	log.Printf("═══════════════════════════════════════════════════")
	log.Printf("  DONE — %d records → %s", res.Written, recordsFile)
	if res.Saved > 0 {
		log.Printf("  DB   — %d records upserted → apartments table", res.Saved)
	}
	for _, r := range res.Results {
		status := fmt.Sprintf("%d records", len(r.Listings))
		if r.Links != 0 {
			status = fmt.Sprintf("%d/%d records", len(r.Listings), r.Links)
		}
		if r.Err != nil {
			status += " (stopped: " + r.Err.Error() + ")"
		}
		log.Printf("    %-20s %s", r.Comuna+":", status)
	}

	stats := utils.BuildSummaryStats(res.Results)
	log.Printf("  STATS")
	log.Printf("    Total records          : %d", stats.TotalListings)
	log.Printf("    Records with price     : %d", stats.PricedListings)
	if stats.PricedListings > 0 {
		log.Printf("    Average price          : %.0f", stats.AveragePrice)
		log.Printf("    Minimum price          : %d", stats.MinimumPrice)
		log.Printf("    Maximum price          : %d", stats.MaximumPrice)
		log.Printf("    Most expensive         : %s | %s",
			stats.MostExpensive.Apartment.Precio,
			stats.MostExpensive.URL,
		)
	}

	log.Printf("    Records per comuna")
	for _, c := range stats.ListingsPerComuna {
		log.Printf("      - %s: %d", c.Comuna, c.Count)
	}
	if len(stats.FeatureCounts) > 0 {
		log.Printf("    Amenities")
		for _, f := range stats.FeatureCounts {
			log.Printf("      - %s: %d", f.Feature, f.Count)
		}
	}
	log.Printf("═══════════════════════════════════════════════════")
}
