// price-query prices a single free-text query without the vision step.
// Useful for testing marketplace credentials and the fallback tiers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"flipscout/config"
	"flipscout/internal/ebay"
	"flipscout/internal/pricing"
)

func main() {
	query := flag.String("q", "", "Search query")
	rawJSON := flag.Bool("json", false, "Output raw JSON only")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: price-query -q \"Matrix DVD\" [-json]")
		os.Exit(2)
	}

	config.LoadEnvFile()
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client, err := ebay.NewClient(ebay.ClientOpts{
		AppID:         cfg.EbayAppID,
		CertID:        cfg.EbayCertID,
		MarketplaceID: cfg.MarketplaceID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result := pricing.NewPipeline(client).Price(ctx, *query)

	if *rawJSON {
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonBytes))
		return
	}

	if result.Status != pricing.StatusPriced {
		fmt.Printf("%s: %s\n", result.Query, result.Status)
		return
	}

	fmt.Printf("%s: %d listings, median %.2f€ (range %.2f–%.2f€)\n\n",
		result.Query, result.Stats.Count, result.Stats.Median, result.Stats.Min, result.Stats.Max)

	for i, listing := range result.Listings {
		fmt.Printf("%d. %s - %.2f€ (%.2f€ + %.2f€ shipping)\n",
			i+1, listing.Title, listing.TotalPrice, listing.BasePrice, listing.ShippingCost)
		if listing.URL != "" {
			fmt.Printf("   %s\n", listing.URL)
		}
	}
}
