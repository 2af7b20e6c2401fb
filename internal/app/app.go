package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TrueDMGDev/FintechFinalProject/internal/config"
	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
	"github.com/TrueDMGDev/FintechFinalProject/internal/fetch"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/extract"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/feed"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/llm"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/scheduler"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/storage"
	"github.com/TrueDMGDev/FintechFinalProject/internal/infrastructure/telegram"
	"github.com/TrueDMGDev/FintechFinalProject/internal/logging"
	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
	"github.com/TrueDMGDev/FintechFinalProject/internal/usecase"
)

// Application wires config to the pipeline, the two fetch loops, and the
// cross-cycle state the pipeline itself refuses to own: the seen-URL set and
// the bounded recent-history window.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	loops    *usecase.Loops
	store    *storage.SQLiteStore
	notifier *telegram.Notifier

	mu          sync.Mutex
	seenURLs    map[string]bool
	recentTexts []string
	recentURLs  []string
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	limiter := fetch.NewDomainRateLimiter(cfg.RateLimit.MaxRequestsPerPeriod, cfg.RateLimit.Period())
	client := fetch.NewClient(fetch.ClientOptions{
		Limiter:            limiter,
		Retry:              fetch.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay(), cfg.Retry.MaxDelay(), cfg.Retry.RetryStatuses),
		MaxInFlight:        int64(cfg.Concurrency.MaxInFlightRequests),
		UserAgent:          cfg.HTTP.UserAgent,
		Timeout:            cfg.HTTP.Timeout(),
		UserAgentOverrides: cfg.HTTP.UserAgentOverrides,
		HeaderOverrides:    cfg.HTTP.HeaderOverrides,
		HumanDelay:         cfg.HumanMode.Enabled,
		HumanDelayMin:      cfg.HumanMode.MinDelay(),
		HumanDelayMax:      cfg.HumanMode.MaxDelay(),
		Logger:             baseLogger.With("component", "fetch"),
	})

	var store *storage.SQLiteStore
	var storePort ports.ArticleStore
	if cfg.Storage.Enabled {
		store = storage.NewSQLiteStore(cfg.Storage.OutputDir)
		storePort = store
	}

	var recognizer ports.EntityRecognizer
	if cfg.NER.Endpoint != "" && cfg.NER.Model != "" && cfg.NER.APIKey != "" {
		recognizer = llm.NewEntityClient(cfg.NER, baseLogger.With("component", "ner"))
	}

	pipeline, err := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:   client,
		Feeds:     feed.NewSource(client, baseLogger.With("component", "feed")),
		Extractor: extract.New(),
		Entities:  recognizer,
		Store:     storePort,
		RSS:       cfg.RSS,
		Crawl:     cfg.Crawl,
		Dedup:     cfg.Dedup,
		Logger:    baseLogger.With("component", "pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	var notifier *telegram.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n.Configured() {
		notifier = n
	}

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger.With("component", "app"),
		pipeline: pipeline,
		store:    store,
		notifier: notifier,
		seenURLs: map[string]bool{},
	}

	a.loops = usecase.NewLoops(
		scheduler.NewTickerScheduler(cfg.Scheduler.Interval(), cfg.Scheduler.Jitter()),
		scheduler.NewTickerScheduler(cfg.Scheduler.BreakingInterval(), cfg.Scheduler.Jitter()),
		func(time.Time) { a.runGroup(config.GroupSources) },
		func(time.Time) { a.runGroup(config.GroupBreaking) },
	)

	return a, nil
}

// Run starts both fetch loops and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.loops.Start(ctx); err != nil {
		return fmt.Errorf("start loops: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.loops.Stop(stopCtx); err != nil {
		a.logger.Warn("stop loops", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", "error", err)
		}
	}
	return nil
}

// RunOnce executes a single cycle for the given source group, for callers
// that drive the pipeline themselves.
func (a *Application) RunOnce(ctx context.Context, group string) ([]domain.Article, error) {
	sources, err := a.cfg.ActiveSources(group)
	if err != nil {
		return nil, err
	}
	return a.cycle(ctx, sources), nil
}

func (a *Application) runGroup(group string) {
	ctx := context.Background()
	sources, err := a.cfg.ActiveSources(group)
	if err != nil {
		// groups are fixed selectors; this cannot happen from config
		a.logger.Error("bad source group", "group", group, "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	articles := a.cycle(ctx, sources)
	a.logger.Info("cycle finished", "group", group, "articles", len(articles))

	if group == config.GroupBreaking && a.notifier != nil {
		a.notifyBreaking(ctx, articles)
	}
}

// cycle runs the pipeline with a snapshot of the cross-cycle state and folds
// the results back into it.
func (a *Application) cycle(ctx context.Context, sources []config.SourceConfig) []domain.Article {
	a.mu.Lock()
	skip := make(map[string]bool, len(a.seenURLs))
	for u := range a.seenURLs {
		skip[u] = true
	}
	recentTexts := append([]string(nil), a.recentTexts...)
	recentURLs := append([]string(nil), a.recentURLs...)
	a.mu.Unlock()

	articles := a.pipeline.RunCycle(ctx, usecase.CycleRequest{
		Sources:     sources,
		SkipURLs:    skip,
		RecentTexts: recentTexts,
		RecentURLs:  recentURLs,
		Persist:     a.cfg.Storage.Enabled,
	})

	a.remember(articles)
	return articles
}

// remember folds a cycle's output into the seen-URL set and the bounded
// recent window used by later cycles.
func (a *Application) remember(articles []domain.Article) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, art := range articles {
		if art.URL != "" {
			a.seenURLs[art.URL] = true
		}
		if art.IsDuplicate || art.Text == "" {
			continue
		}
		a.recentTexts = append(a.recentTexts, art.Text)
		a.recentURLs = append(a.recentURLs, art.URL)
	}

	if window := a.cfg.Dedup.CompareWindow; window > 0 && len(a.recentTexts) > window {
		a.recentTexts = a.recentTexts[len(a.recentTexts)-window:]
		a.recentURLs = a.recentURLs[len(a.recentURLs)-window:]
	}
}

func (a *Application) notifyBreaking(ctx context.Context, articles []domain.Article) {
	var breaking []domain.Article
	for _, art := range articles {
		if usecase.IsBreaking(a.cfg.BreakingNews, art) {
			breaking = append(breaking, art)
		}
	}
	if len(breaking) == 0 {
		return
	}

	digest := usecase.BreakingDigest(breaking)
	if err := a.notifier.PublishDigest(ctx, digest); err != nil {
		a.logger.Warn("breaking notification failed", "error", err)
		return
	}
	a.logger.Info("breaking digest sent", "articles", len(breaking))
}
