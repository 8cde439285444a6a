package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"github.com/tolarian/deckwatch/internal/retry"
	"go.uber.org/zap"
)

// RunSummary is the user-visible outcome of one scrape run. The failed
// commander list is the signal of partial failure; nothing is dropped
// silently.
type RunSummary struct {
	RunID                string
	Attempted            int
	Succeeded            int
	Failed               int
	FailedCommanders     []string
	CardsProcessed       int
	AvgCardsPerCommander float64
	Duration             time.Duration
}

type ScraperConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type Scraper struct {
	commanders domain.CommanderRepository
	ranking    domain.RankingSource
	tracker    *RunTracker
	cfg        ScraperConfig
	logger     *zap.Logger
	progress   ProgressReporter
	now        func() time.Time
}

func NewScraper(
	commanders domain.CommanderRepository,
	ranking domain.RankingSource,
	tracker *RunTracker,
	cfg ScraperConfig,
	logger *zap.Logger,
	progress ProgressReporter,
) *Scraper {
	if progress == nil {
		progress = NopReporter()
	}
	return &Scraper{
		commanders: commanders,
		ranking:    ranking,
		tracker:    tracker,
		cfg:        cfg,
		logger:     logger,
		progress:   progress,
		now:        time.Now,
	}
}

// ScrapeTopCommanders crawls the ranked list and each commander's
// decklist. Only a ranking-list failure is fatal; a single commander's
// failure is isolated, counted, and the run continues.
func (s *Scraper) ScrapeTopCommanders(ctx context.Context, n int) (summary RunSummary, err error) {
	started := s.now()

	run, err := s.tracker.Begin(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("begin run: %w", err)
	}
	defer func() {
		s.tracker.Finish(ctx, run, err)
		summary = s.summarize(run, s.now().Sub(started))
	}()

	s.progress.OnProgress(ProgressEvent{Stage: "fetching commander rankings"})
	ranked, err := s.ranking.TopCommanders(ctx, n)
	if err != nil {
		s.logger.Error("ranking list fetch failed, aborting run", zap.Error(err))
		err = fmt.Errorf("fetch ranking list: %w", err)
		return
	}

	total := len(ranked)
	for i, entry := range ranked {
		if ctx.Err() != nil {
			err = ctx.Err()
			return
		}

		s.progress.OnProgress(ProgressEvent{
			Index:         i + 1,
			Total:         total,
			Percent:       float64(i+1) / float64(total) * 100,
			CommanderName: entry.Name,
			Rank:          entry.Rank,
		})

		cards, itemErr := s.scrapeOne(ctx, entry)
		if itemErr != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
				return
			}
			s.logger.Warn("commander failed",
				zap.String("commander", entry.Name),
				zap.Int("rank", entry.Rank),
				zap.Error(itemErr),
			)
			run.RecordFailure(entry.Name)
			continue
		}
		run.RecordSuccess(cards)
	}
	return
}

// scrapeOne upserts the commander row, then fetches and replaces its
// decklist. The upsert is deliberately before the fetch: a commander
// row with a stale or missing decklist is an acceptable documented
// outcome when the decklist fetch exhausts its retries.
func (s *Scraper) scrapeOne(ctx context.Context, entry domain.RankedCommander) (int, error) {
	commander := domain.Commander{
		Slug:      entry.Slug,
		Name:      entry.Name,
		Rank:      entry.Rank,
		SourceURL: entry.SourceURL,
	}
	if err := s.commanders.Upsert(ctx, &commander); err != nil {
		return 0, fmt.Errorf("upsert commander: %w", err)
	}

	scraped, err := retry.Do(ctx, retry.Policy{
		MaxAttempts: s.cfg.MaxRetries,
		BaseDelay:   s.cfg.BaseDelay,
		MaxDelay:    s.cfg.MaxDelay,
		// The source treats every decklist failure the same way up to
		// the ceiling, 404s included.
		OnRetry: func(attempt int, err error) {
			s.logger.Warn("decklist fetch retry",
				zap.String("commander", entry.Name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	}, func(ctx context.Context) (*domain.ScrapedDecklist, error) {
		return s.ranking.Decklist(ctx, entry.Slug)
	})
	if err != nil {
		s.logger.Error("decklist fetch exhausted",
			zap.String("commander", entry.Name),
			zap.Int("max_attempts", s.cfg.MaxRetries),
			zap.Error(err),
		)
		return 0, err
	}

	var partnerID *uint
	if scraped.PartnerSlug != "" {
		partner, err := s.commanders.EnsureBySlug(ctx, scraped.PartnerSlug, scraped.PartnerName)
		if err != nil {
			return 0, fmt.Errorf("ensure partner: %w", err)
		}
		partnerID = &partner.ID
	}

	if err := s.commanders.ReplaceDecklist(ctx, commander.ID, partnerID, scraped.Cards, s.now().UTC()); err != nil {
		return 0, fmt.Errorf("replace decklist: %w", err)
	}

	cards := 0
	for _, card := range scraped.Cards {
		cards += card.Quantity
	}
	return cards, nil
}

func (s *Scraper) summarize(run *Run, duration time.Duration) RunSummary {
	execution := run.Snapshot()
	summary := RunSummary{
		RunID:            execution.RunID,
		Attempted:        execution.CommandersAttempted,
		Succeeded:        execution.CommandersSucceeded,
		Failed:           execution.CommandersFailed,
		FailedCommanders: run.FailedCommanders(),
		CardsProcessed:   execution.CardsProcessed,
		Duration:         duration,
	}
	if summary.Succeeded > 0 {
		summary.AvgCardsPerCommander = float64(summary.CardsProcessed) / float64(summary.Succeeded)
	}
	return summary
}
