package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"flipscout/config"
	"flipscout/internal/ebay"
	"flipscout/internal/pricing"
	"flipscout/internal/scan"
	"flipscout/internal/storage"
	"flipscout/internal/vision"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	retry := flag.Bool("retry", false, "Retry zero-result items with model-suggested alternative queries")
	history := flag.Int("history", 0, "Print the n most recent price history entries and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	config.LoadEnvFile()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	if *history > 0 {
		printHistory(store, *history)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: flipscout [-retry] [-debug] image.jpg [image2.jpg ...]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ebay.NewClient(ebay.ClientOpts{
		AppID:         cfg.EbayAppID,
		CertID:        cfg.EbayCertID,
		MarketplaceID: cfg.MarketplaceID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ebay client")
	}

	gemini, err := vision.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gemini analyzer")
	}
	analyzer := vision.NewCachedAnalyzer(gemini, store)

	pipeline := pricing.NewPipeline(client)
	scanner := scan.NewScanner(analyzer, pipeline, store)
	orchestrator := scan.NewRetryOrchestrator(pipeline, gemini)

	for _, path := range flag.Args() {
		if err := scanFile(ctx, scanner, orchestrator, path, *retry); err != nil {
			log.Error().Err(err).Str("path", path).Msg("scan failed")
		}
	}
}

func scanFile(ctx context.Context, scanner *scan.Scanner, orchestrator *scan.RetryOrchestrator, path string, retry bool) error {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := http.DetectContentType(imageData)

	result, err := scanner.Scan(ctx, imageData, mimeType)
	if err != nil {
		return err
	}
	if len(result.Items) == 0 {
		fmt.Printf("%s: no media items detected\n", path)
		return nil
	}

	if retry {
		for i, item := range result.Items {
			if item.Result.Status != pricing.StatusNoResults {
				continue
			}
			state, err := orchestrator.Retry(ctx, item.ID, item.Query, imageData, mimeType)
			if err != nil {
				log.Warn().Err(err).Str("itemId", item.ID).Msg("retry failed")
				continue
			}
			if state.Phase == scan.PhaseSucceeded {
				result.Items[i].Result = *state.Result
			}
		}
	}

	printResults(path, result)
	return nil
}

func printResults(path string, result *scan.ScanResult) {
	fmt.Printf("\n%s (scan %s)\n", path, result.ScanID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSTATUS\tMEDIAN\tRANGE\tLISTINGS")
	for _, item := range result.Items {
		switch item.Result.Status {
		case pricing.StatusPriced:
			stats := item.Result.Stats
			fmt.Fprintf(w, "%s\t%s\t%.2f€\t%.2f–%.2f€\t%d\n",
				item.Result.Query, item.Result.Status, stats.Median, stats.Min, stats.Max, stats.Count)
		default:
			fmt.Fprintf(w, "%s\t%s\t-\t-\t0\n", item.Query, item.Result.Status)
		}
	}
	w.Flush()
}

func printHistory(store storage.Store, limit int) {
	entries, err := store.RecentHistory(limit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read price history")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tQUERY\tSTATUS\tMEDIAN\tLISTINGS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f€\t%d\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Query, e.Status, e.MedianPrice, e.ListingCount)
	}
	w.Flush()
}
