// bulk-scan prices the media items in many photos. Files are processed with
// bounded concurrency; items within one photo are still priced one at a
// time in detection order.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"flipscout/config"
	"flipscout/internal/ebay"
	"flipscout/internal/pricing"
	"flipscout/internal/scan"
	"flipscout/internal/storage"
	"flipscout/internal/vision"
)

const fileConcurrency = 2

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bulk-scan image1.jpg image2.jpg ...")
		os.Exit(2)
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

	scanner := scan.NewScanner(
		vision.NewCachedAnalyzer(gemini, store),
		pricing.NewPipeline(client),
		store,
	)

	var printMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fileConcurrency)

	for _, path := range flag.Args() {
		g.Go(func() error {
			imageData, err := os.ReadFile(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("failed to read image")
				return nil
			}

			result, err := scanner.Scan(ctx, imageData, http.DetectContentType(imageData))
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("scan failed")
				return nil
			}

			printMu.Lock()
			defer printMu.Unlock()
			fmt.Printf("\n%s (scan %s): %d items\n", path, result.ScanID, len(result.Items))
			for _, item := range result.Items {
				if item.Result.Status == pricing.StatusPriced {
					stats := item.Result.Stats
					fmt.Printf("  %s: median %.2f€ (%d listings)\n", item.Query, stats.Median, stats.Count)
				} else {
					fmt.Printf("  %s: %s\n", item.Query, item.Result.Status)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bulk scan aborted")
	}
}
