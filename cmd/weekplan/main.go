package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	applog "weekplan/internal/log"
)

const (
	exitSuccess      = 0
	exitGeneralError = 1
	exitUsageError   = 2
)

func main() {
	app := &cli.App{
		Name:    "weekplan",
		Usage:   "Weekly academic planner: manual tasks, AI proposals and calendar feeds in one schedule",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath(),
				Usage:   "Path to config file",
				EnvVars: []string{"WEEKPLAN_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a task, optionally recurring through the term",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Task title"},
					&cli.StringFlag{Name: "start", Usage: "Start time, 24-hour HH:MM"},
					&cli.StringFlag{Name: "end", Usage: "End time, 24-hour HH:MM"},
					&cli.StringFlag{Name: "due", Usage: "Anchor date YYYY-MM-DD (default today)"},
					&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Value: "medium", Usage: "high, medium or low"},
					&cli.StringFlag{Name: "repeat", Aliases: []string{"r"}, Value: "never", Usage: "never, daily, weekly, monthly or custom"},
					&cli.IntSliceFlag{Name: "repeat-days", Usage: "Weekday indices for custom repeat, 0=Sun..6=Sat"},
				},
				Action: addTask,
			},
			{
				Name:  "list",
				Usage: "Show the week's schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Any date inside the week to show (default today)"},
				},
				Action: listWeek,
			},
			{
				Name:  "done",
				Usage: "Toggle a task's completion flag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "day", Required: true, Usage: "Weekday key (Mon..Sun)"},
					&cli.IntFlag{Name: "id", Required: true, Usage: "Task id"},
				},
				Action: toggleDone,
			},
			{
				Name:  "remove",
				Usage: "Remove tasks by title match or repeat group",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "day", Usage: "Weekday key (Mon..Sun), required with --match"},
					&cli.StringFlag{Name: "match", Usage: "Case-insensitive title substring"},
					&cli.BoolFlag{Name: "exact", Usage: "Match the whole title instead of a substring"},
					&cli.StringFlag{Name: "group", Usage: "Repeat-group identifier to remove everywhere"},
				},
				Action: removeTasks,
			},
			{
				Name:   "sync",
				Usage:  "Synchronize all configured calendar feeds now",
				Action: syncFeeds,
			},
			{
				Name:  "apply",
				Usage: "Apply an agent schedule proposal (JSON)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "-", Usage: "Proposal file, - for stdin"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Any date inside the target week (default today)"},
				},
				Action: applyProposal,
			},
			{
				Name:   "daemon",
				Usage:  "Run the background feed sync loop",
				Action: runDaemon,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		applog.Error("command failed", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitGeneralError)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".weekplan", "config.yaml")
	}
	return "config.yaml"
}
