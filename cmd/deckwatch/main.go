package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tolarian/deckwatch/internal/app"
	"github.com/tolarian/deckwatch/internal/config"
	"github.com/tolarian/deckwatch/internal/usecase"
)

func main() {
	scrape := flag.Bool("scrape", false, "run the commander scraper once and exit")
	top := flag.Int("top", 0, "number of top commanders to scrape (defaults to SCRAPE_TOP_N)")
	refresh := flag.Bool("refresh", false, "run the price refresher once and exit")
	card := flag.String("card", "", "refresh a single card id, bypassing the daily freshness filter")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	manual := *scrape || *refresh
	opts := app.Options{Console: manual}
	if manual {
		opts.Progress = usecase.NewWriterReporter(os.Stdout)
	}

	application, err := app.New(ctx, cfg, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize app:", err)
		os.Exit(1)
	}
	defer application.Shutdown()

	switch {
	case *scrape:
		n := *top
		if n <= 0 {
			n = cfg.ScrapeTopN
		}
		summary, err := application.ScrapeCommanders(ctx, n)
		printScrapeSummary(summary)
		if err != nil {
			fmt.Fprintln(os.Stderr, "scrape aborted:", err)
			os.Exit(1)
		}
	case *refresh:
		var cardIDs []string
		if *card != "" {
			cardIDs = []string{*card}
		}
		summary, err := application.RefreshPrices(ctx, cardIDs)
		printRefreshSummary(summary)
		if err != nil {
			fmt.Fprintln(os.Stderr, "refresh aborted:", err)
			os.Exit(1)
		}
	default:
		if err := application.Run(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "application error:", err)
			os.Exit(1)
		}
	}
}

func printScrapeSummary(summary usecase.RunSummary) {
	fmt.Printf("scrape run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	fmt.Printf("  attempted: %d  succeeded: %d  failed: %d\n", summary.Attempted, summary.Succeeded, summary.Failed)
	fmt.Printf("  cards processed: %d (avg %.1f per commander)\n", summary.CardsProcessed, summary.AvgCardsPerCommander)
	if len(summary.FailedCommanders) > 0 {
		fmt.Printf("  failed commanders: %s\n", strings.Join(summary.FailedCommanders, ", "))
	}
}

func printRefreshSummary(summary usecase.RefreshSummary) {
	fmt.Printf("price refresh finished in %s\n", summary.Duration)
	fmt.Printf("  processed: %d  skipped (fresh today): %d  failed: %d  alerts: %d\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.AlertsCreated)
	if len(summary.FailedCardIDs) > 0 {
		fmt.Printf("  failed cards: %s\n", strings.Join(summary.FailedCardIDs, ", "))
	}
}
