// Package scheduler drives the periodic scrape runs: it loads active
// keywords, runs fetch+extract+ingest per keyword, and hands newly ingested
// items to the notification dispatcher.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krw82/usedItem/internal/extractor"
	"github.com/krw82/usedItem/internal/fetcher"
	"github.com/krw82/usedItem/internal/model"
	"github.com/krw82/usedItem/internal/storage"
	"github.com/krw82/usedItem/internal/strategy"
)

// Dispatcher runs a notification pass over items awaiting one.
type Dispatcher interface {
	Dispatch(ctx context.Context)
}

// KeywordStatus classifies the outcome of one keyword within a run.
type KeywordStatus string

// Per-keyword run outcomes. None of them aborts the run.
const (
	KeywordOK              KeywordStatus = "ok"
	KeywordUnsupportedSite KeywordStatus = "unsupported_site"
	KeywordEncodingFailed  KeywordStatus = "encoding_failed"
	KeywordFetchFailed     KeywordStatus = "fetch_failed"
	KeywordSelectorMiss    KeywordStatus = "selector_miss"
)

// KeywordResult records what happened to one keyword during a run.
type KeywordResult struct {
	KeywordID int64
	Keyword   string
	Site      string
	Status    KeywordStatus
	Found     int
	Skipped   int
	Inserted  int
	Err       string
}

// RunReport summarizes one completed scrape run.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []KeywordResult
}

// Scheduler periodically scrapes marketplaces for all active keywords.
type Scheduler struct {
	store      storage.Storage
	registry   *strategy.Registry
	fetcher    *fetcher.Fetcher
	extractor  *extractor.Extractor
	dispatcher Dispatcher
	log        *slog.Logger

	tick         time.Duration
	keywordDelay time.Duration

	// Single-flight guard: a timer fire while a run is in progress is dropped.
	running atomic.Bool

	mu      sync.Mutex
	lastRun *RunReport
}

// New creates a Scheduler with the default HTTP client and a 300s interval.
func New(store storage.Storage, registry *strategy.Registry, dispatcher Dispatcher, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, registry, fetcher.New(http.DefaultClient), dispatcher, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, registry *strategy.Registry, f *fetcher.Fetcher, dispatcher Dispatcher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		registry:   registry,
		fetcher:    f,
		extractor:  extractor.New(log),
		dispatcher: dispatcher,
		log:        log,
		tick:       300 * time.Second,
	}
}

// SetTickInterval overrides the default 300-second run interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetKeywordDelay sets a politeness delay between keyword fetches.
func (s *Scheduler) SetKeywordDelay(d time.Duration) {
	s.keywordDelay = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.auditSites(ctx)
	s.TriggerRun(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TriggerRun(ctx)
		}
	}
}

// TriggerRun executes one scrape run. It reports false when a run is already
// in progress; overlapping runs against the same keyword set are not allowed.
func (s *Scheduler) TriggerRun(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("scrape run already in progress, skipping")
		return false
	}
	defer s.running.Store(false)

	s.runOnce(ctx)
	return true
}

// LastRun returns the report of the most recently completed run, or nil.
func (s *Scheduler) LastRun() *RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	cp := *s.lastRun
	cp.Results = append([]KeywordResult(nil), s.lastRun.Results...)
	return &cp
}

// auditSites logs every active keyword site code with no registered
// strategy. Such keywords are an operator error, not a runtime data error,
// and should be visible before the first run quietly skips them.
func (s *Scheduler) auditSites(ctx context.Context) {
	keywords, err := s.store.ListActiveKeywords(ctx)
	if err != nil {
		s.log.Error("audit: list active keywords", "error", err)
		return
	}
	seen := map[string]bool{}
	for _, kw := range keywords {
		if seen[kw.SiteCode] {
			continue
		}
		seen[kw.SiteCode] = true
		if _, err := s.registry.Resolve(kw.SiteCode); err != nil {
			s.log.Warn("active keywords target an unsupported site", "site", kw.SiteCode)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report := RunReport{StartedAt: time.Now().UTC()}

	keywords, err := s.store.ListActiveKeywords(ctx)
	if err != nil {
		s.log.Error("list active keywords", "error", err)
		return
	}
	if len(keywords) == 0 {
		s.log.Info("no active keywords to scrape")
		report.FinishedAt = time.Now().UTC()
		s.setLastRun(&report)
		return
	}

	s.log.Info("scrape run started", "keywords", len(keywords))

	for i, kw := range keywords {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && s.keywordDelay > 0 {
			time.Sleep(s.keywordDelay)
		}
		report.Results = append(report.Results, s.processKeyword(ctx, kw))
	}

	s.dispatcher.Dispatch(ctx)

	report.FinishedAt = time.Now().UTC()
	s.setLastRun(&report)
	s.log.Info("scrape run finished", "keywords", len(keywords),
		"duration", report.FinishedAt.Sub(report.StartedAt))
}

// processKeyword runs fetch+extract+ingest for one keyword. Every failure is
// contained here: the result records it and the run moves on.
func (s *Scheduler) processKeyword(ctx context.Context, kw model.Keyword) KeywordResult {
	res := KeywordResult{KeywordID: kw.ID, Keyword: kw.Text, Site: kw.SiteCode, Status: KeywordOK}
	defer s.updateLastChecked(ctx, kw.ID)

	st, err := s.registry.Resolve(kw.SiteCode)
	if err != nil {
		s.log.Warn("unsupported site for keyword", "keyword_id", kw.ID, "site", kw.SiteCode)
		res.Status = KeywordUnsupportedSite
		res.Err = err.Error()
		return res
	}

	doc, err := s.fetcher.Search(ctx, st, kw.Text)
	if err != nil {
		s.log.Error("fetch search page", "keyword_id", kw.ID, "keyword", kw.Text,
			"site", kw.SiteCode, "error", err)
		if errors.Is(err, strategy.ErrKeywordEncoding) {
			res.Status = KeywordEncodingFailed
		} else {
			res.Status = KeywordFetchFailed
		}
		res.Err = err.Error()
		return res
	}

	ext := s.extractor.Extract(doc, st)
	res.Found = len(ext.Items)
	res.Skipped = ext.Skipped
	if ext.SelectorMiss {
		res.Status = KeywordSelectorMiss
		return res
	}

	inserted, err := s.store.InsertItemsIfAbsent(ctx, ext.Items)
	res.Inserted = len(inserted)
	if err != nil {
		s.log.Error("ingest items", "keyword_id", kw.ID, "error", err)
		res.Err = err.Error()
		return res
	}

	if res.Inserted > 0 {
		s.log.Info("ingested new items", "keyword_id", kw.ID, "keyword", kw.Text,
			"site", kw.SiteCode, "found", res.Found, "inserted", res.Inserted)
	}
	return res
}

func (s *Scheduler) updateLastChecked(ctx context.Context, keywordID int64) {
	if err := s.store.UpdateKeywordLastChecked(ctx, keywordID, time.Now().UTC()); err != nil {
		s.log.Error("update keyword last checked", "keyword_id", keywordID, "error", err)
	}
}

func (s *Scheduler) setLastRun(r *RunReport) {
	s.mu.Lock()
	s.lastRun = r
	s.mu.Unlock()
}
