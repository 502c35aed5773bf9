package utils

import (
	"sort"
	"strconv"
	"strings"

	"github.com/facualex/portalinmobiliario-etl/models"
)

type ComunaCount struct {
	Comuna string
	Count  int
}

type FeatureCount struct {
	Feature string
	Count   int
}

type SummaryStats struct {
	TotalListings     int
	PricedListings    int
	AveragePrice      float64
	MinimumPrice      int64
	MaximumPrice      int64
	MostExpensive     models.Listing
	ListingsPerComuna []ComunaCount
	FeatureCounts     []FeatureCount
}

// BuildSummaryStats aggregates the extraction results for the end-of-run
// report. Records keep their display text; prices are parsed here only.
func BuildSummaryStats(results []models.ComunaResult) SummaryStats {
	comunaCounts := make(map[string]int)
	featureCounts := make(map[models.Field]int)
	var stats SummaryStats
	var totalPrice int64

	for _, result := range results {
		comuna := strings.TrimSpace(result.Comuna)
		if comuna == "" {
			comuna = "Unknown"
		}
		for _, listing := range result.Listings {
			stats.TotalListings++
			comunaCounts[comuna]++

			for _, f := range models.Fields() {
				if f.IsFlag() && listing.Apartment.Flag(f) {
					featureCounts[f]++
				}
			}

			price, ok := ParsePrice(listing.Apartment.Precio)
			if !ok {
				continue
			}
			if stats.PricedListings == 0 || price < stats.MinimumPrice {
				stats.MinimumPrice = price
			}
			if stats.PricedListings == 0 || price > stats.MaximumPrice {
				stats.MaximumPrice = price
				stats.MostExpensive = listing
			}
			stats.PricedListings++
			totalPrice += price
		}
	}

	if stats.PricedListings > 0 {
		stats.AveragePrice = float64(totalPrice) / float64(stats.PricedListings)
	}

	perComuna := make([]ComunaCount, 0, len(comunaCounts))
	for comuna, count := range comunaCounts {
		perComuna = append(perComuna, ComunaCount{Comuna: comuna, Count: count})
	}
	sort.Slice(perComuna, func(i, j int) bool {
		if perComuna[i].Count == perComuna[j].Count {
			return perComuna[i].Comuna < perComuna[j].Comuna
		}
		return perComuna[i].Count > perComuna[j].Count
	})
	stats.ListingsPerComuna = perComuna

	features := make([]FeatureCount, 0, len(featureCounts))
	for f, count := range featureCounts {
		features = append(features, FeatureCount{Feature: f.String(), Count: count})
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Count == features[j].Count {
			return features[i].Feature < features[j].Feature
		}
		return features[i].Count > features[j].Count
	})
	stats.FeatureCounts = features

	return stats
}

// ParsePrice reads a CLP display price such as "350.000" or "$ 1.200.000".
// UF prices with decimals ("18,5") are truncated to the integer part.
func ParsePrice(display string) (int64, bool) {
	s := strings.TrimSpace(display)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
