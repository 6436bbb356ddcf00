package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/crowquill/internal/config"
	"github.com/user/crowquill/internal/feed"
	"github.com/user/crowquill/internal/scheduler"
	"github.com/user/crowquill/internal/types"
)

var serveDry bool

func init() {
	serveCmd.Flags().BoolVar(&serveDry, "dry-run", false, "log actions instead of queueing them")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crowquill daemon",
	Long: "Runs engagement sessions on each account's cron schedule until\n" +
		"interrupted. Accounts without a session schedule are skipped.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "crowquill.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write PID file
	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var executor types.ActionExecutor = feed.NewFileActionOutbox(cfg.DataDir)
	if serveDry {
		executor = dryRunExecutor{}
	}

	app, err := buildApp(ctx, cfg, executor)
	if err != nil {
		return err
	}
	defer app.Close()

	entries := scheduleEntries(cfg)
	sched := scheduler.New(entries, func(account types.AccountID) {
		app.recorder.MarkRunStart()
		app.runAccount(ctx, account)
		counters := app.recorder.MarkRunFinish()
		if app.notifier != nil {
			app.notifier.SendRunReport(counters)
		}
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	slog.Info("crowquill started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"accounts", len(entries),
		"max_concurrent", cfg.MaxConcurrentAccounts,
		"dry_run", serveDry,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				// Re-write PID file since we failed to re-exec
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}

// scheduleEntries maps active accounts onto cron entries. Accounts
// without a session schedule only run via the one-shot `run` command.
func scheduleEntries(cfg *config.Config) []scheduler.Entry {
	var entries []scheduler.Entry
	for _, account := range cfg.ActiveAccounts() {
		if account.SessionSchedule == "" {
			slog.Warn("account has no session schedule", "account", account.ID)
			continue
		}
		entries = append(entries, scheduler.Entry{
			Account:  account.ID,
			Schedule: account.SessionSchedule,
		})
	}
	return entries
}
