// Package sync orchestrates multi-feed synchronization: fetch, parse
// and merge each configured feed in sequence, then swap the whole
// store. Feeds are processed one at a time because every merge step
// threads the updated id counter and schedule into the next one.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"weekplan/internal/config"
	"weekplan/internal/fetch"
	"weekplan/internal/ics"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/schedule"
)

// StateStore is the persistence boundary the syncer needs: load the
// current state, save the replacement wholesale.
type StateStore interface {
	Load() (model.Schedule, int, error)
	Save(model.Schedule, int) error
}

// Syncer runs feed synchronization cycles.
type Syncer struct {
	store   StateStore
	fetcher *fetch.Fetcher
	feeds   []config.FeedConfig
	termEnd time.Time
	parse   ics.Options

	cron *cron.Cron
}

// New builds a Syncer for the given subscriptions.
func New(st StateStore, fetcher *fetch.Fetcher, feeds []config.FeedConfig, termEnd time.Time) *Syncer {
	return &Syncer{
		store:   st,
		fetcher: fetcher,
		feeds:   feeds,
		termEnd: termEnd,
	}
}

// SyncNow runs one explicit, user-triggered cycle. The first fetch
// failure aborts the remaining feeds and is returned; feeds merged
// before the failure are kept.
func (s *Syncer) SyncNow(ctx context.Context) error {
	return s.run(ctx, true)
}

// run is the sequential fold: (schedule, nextID) threads through every
// feed's merge. failFast distinguishes explicit sync (surface first
// error, stop) from the background cycle (log, skip the feed, go on).
func (s *Syncer) run(ctx context.Context, failFast bool) error {
	if len(s.feeds) == 0 {
		return nil
	}

	sched, nextID, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	var firstErr error
	merged := 0
	for _, feed := range s.feeds {
		body, err := s.fetcher.Fetch(ctx, feed.URL)
		if err != nil {
			applog.Error("feed sync failed", err, "feed", feed.Name, "url", fetch.RedactURL(feed.URL))
			if failFast {
				firstErr = err
				break
			}
			continue
		}

		events := ics.Parse(string(body), s.parse)
		sched, nextID = schedule.MergeFeed(sched, events, feed.URL, s.termEnd, nextID)
		merged++
		applog.Info("feed merged", "feed", feed.Name, "url", fetch.RedactURL(feed.URL), "events", len(events))
	}

	if merged > 0 {
		if err := s.store.Save(sched, nextID); err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
	}
	return firstErr
}

// Start launches the background loop: one immediate cycle, then one
// per cron schedule. Background failures are logged, never surfaced.
func (s *Syncer) Start(ctx context.Context, cronSpec string) error {
	if len(s.feeds) == 0 {
		applog.Info("no feeds configured, background sync idle")
		return nil
	}

	go s.background(ctx)

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(cronSpec, func() { s.background(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cronSpec, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the background schedule.
func (s *Syncer) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Syncer) background(ctx context.Context) {
	if err := s.run(ctx, false); err != nil {
		// run never fails fast here; only a load/save error lands.
		applog.Error("background sync cycle failed", err)
	}
}
