package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"weekplan/internal/agent"
	"weekplan/internal/config"
	"weekplan/internal/fetch"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/schedule"
	"weekplan/internal/store"
	syncer "weekplan/internal/sync"
	"weekplan/internal/web"
)

// appState bundles everything a command needs after config load.
type appState struct {
	cfg     *config.Config
	store   *store.Store
	termEnd time.Time
}

func openState(c *cli.Context) (*appState, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applog.SetLevelFromString(cfg.LogLevel)

	termEnd, err := cfg.TermEndDate()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &appState{cfg: cfg, store: st, termEnd: termEnd}, nil
}

func (a *appState) close() {
	if err := a.store.Close(); err != nil {
		applog.Error("close store", err)
	}
}

func addTask(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	form := model.TaskForm{
		Name:       c.String("title"),
		StartTime:  c.String("start"),
		EndTime:    c.String("end"),
		DueDate:    c.String("due"),
		Priority:   model.Priority(c.String("priority")),
		Repeat:     model.RepeatRule(c.String("repeat")),
		RepeatDays: c.IntSlice("repeat-days"),
	}
	if err := form.Validate(); err != nil {
		return err
	}

	// The expander never defaults the anchor; the caller does.
	anchor := time.Now()
	if form.DueDate != "" {
		anchor, err = time.ParseInLocation(model.DateLayout, form.DueDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", form.DueDate, err)
		}
	}

	sched, nextID, err := app.store.Load()
	if err != nil {
		return err
	}

	byDay, nextID, err := schedule.Expand(form, anchor, app.termEnd, nextID,
		schedule.ExpandOptions{IncludeClosingWeek: app.cfg.IncludeClosingWeek})
	if err != nil {
		return err
	}

	out := sched.Clone()
	count := 0
	for _, day := range model.Days {
		out[day] = append(out[day], byDay[day]...)
		count += len(byDay[day])
	}
	schedule.SortDays(out)

	if err := app.store.Save(out, nextID); err != nil {
		return err
	}
	fmt.Printf("added %d occurrence(s)\n", count)
	return nil
}

func listWeek(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	ref := time.Now()
	if d := c.String("date"); d != "" {
		ref, err = time.ParseInLocation(model.DateLayout, d, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	weekDates := model.WeekDates(ref)
	inWeek := make(map[string]bool, 7)
	for _, d := range weekDates {
		inWeek[model.DateString(d)] = true
	}

	sched, _, err := app.store.Load()
	if err != nil {
		return err
	}

	for i, day := range model.Days {
		fmt.Printf("%s %s\n", day, model.DateString(weekDates[i]))
		for _, item := range sched[day] {
			if item.DueDate != "" && !inWeek[item.DueDate] {
				continue
			}
			mark := " "
			if item.Completed {
				mark = "x"
			}
			t := item.Time
			if t == "" {
				t = "all day"
			}
			fmt.Printf("  [%s] #%-4d %-19s %-8s %s\n", mark, item.ID, t, item.Priority, item.Title)
		}
	}
	fmt.Printf("completed: %d%%\n", sched.CompletionPercent())
	return nil
}

func toggleDone(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	sched, nextID, err := app.store.Load()
	if err != nil {
		return err
	}
	out, err := schedule.ToggleCompleted(sched, c.String("day"), c.Int("id"))
	if err != nil {
		return err
	}
	return app.store.Save(out, nextID)
}

func removeTasks(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	sched, nextID, err := app.store.Load()
	if err != nil {
		return err
	}

	switch {
	case c.String("group") != "":
		out := schedule.RemoveRepeatGroup(sched, c.String("group"))
		if err := app.store.Save(out, nextID); err != nil {
			return err
		}
		fmt.Println("repeat group removed")
		return nil

	case c.String("match") != "":
		if c.String("day") == "" {
			return errors.New("--match requires --day")
		}
		matcher := schedule.MatchSubstring
		if c.Bool("exact") {
			matcher = schedule.MatchExact
		}
		out, removed, err := schedule.RemoveMatching(sched, c.String("day"), c.String("match"), matcher)
		if err != nil {
			return err
		}
		if err := app.store.Save(out, nextID); err != nil {
			return err
		}
		fmt.Printf("removed %d task(s)\n", removed)
		return nil
	}

	return errors.New("nothing to remove: pass --match or --group")
}

func newSyncer(app *appState) *syncer.Syncer {
	fetcher := fetch.New(app.cfg.FetchTimeout())
	return syncer.New(app.store, fetcher, app.cfg.Feeds, app.termEnd)
}

func syncFeeds(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	if len(app.cfg.Feeds) == 0 {
		return errors.New("no feeds configured")
	}
	if err := newSyncer(app).SyncNow(c.Context); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	fmt.Println("feeds synchronized")
	return nil
}

func applyProposal(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	var in io.Reader = os.Stdin
	if f := c.String("file"); f != "" && f != "-" {
		fh, err := os.Open(f)
		if err != nil {
			return err
		}
		defer fh.Close()
		in = fh
	}

	resp, err := agent.DecodeResponse(in)
	if err != nil {
		return err
	}

	ref := time.Now()
	if d := c.String("date"); d != "" {
		ref, err = time.ParseInLocation(model.DateLayout, d, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	weekDates := model.WeekDates(ref)

	sched, nextID, err := app.store.Load()
	if err != nil {
		return err
	}

	opts := schedule.ApplyOptions{
		Expand: schedule.ExpandOptions{IncludeClosingWeek: app.cfg.IncludeClosingWeek},
	}

	switch resp.UpdateType {
	case agent.UpdateNone:
		fmt.Println("no schedule changes")
		return nil
	case agent.UpdatePartial:
		sched, nextID = schedule.ApplyChanges(sched, resp.Changes, weekDates, nextID, app.termEnd, opts)
	case agent.UpdateFull:
		sched, nextID = schedule.MergeFull(sched, resp.WeeklySchedule, weekDates, nextID)
		schedule.SortDays(sched)
	}

	if err := app.store.Save(sched, nextID); err != nil {
		return err
	}
	fmt.Printf("applied %s update\n", resp.UpdateType)
	return nil
}

func runDaemon(c *cli.Context) error {
	app, err := openState(c)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	s := newSyncer(app)
	if err := s.Start(ctx, app.cfg.RefreshCron); err != nil {
		return err
	}
	defer s.Stop()

	if app.cfg.Listen != "" {
		go func() {
			if err := web.Run(ctx, app.cfg, app.store, s); err != nil {
				applog.Error("HTTP server failed", err)
				cancel()
			}
		}()
	}

	applog.Info("weekplan daemon running",
		"feeds", len(app.cfg.Feeds),
		"refresh", app.cfg.RefreshCron,
		"term_end", app.cfg.TermEnd,
	)
	<-ctx.Done()
	applog.Info("weekplan daemon exiting")
	return nil
}
