package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/crowquill/internal/feed"
	"github.com/user/crowquill/internal/types"
)

var runDry bool

func init() {
	runCmd.Flags().BoolVar(&runDry, "dry-run", true, "log actions instead of executing them")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one engagement session for every active account",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

// dryRunExecutor logs actions without performing them.
type dryRunExecutor struct{}

func (dryRunExecutor) Perform(_ context.Context, kind types.ActionKind, item *types.CandidateItem, text string) (bool, error) {
	slog.Info("dry-run action", "kind", kind, "item", item.ID, "author", item.Author, "text", text)
	return true, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var executor types.ActionExecutor = dryRunExecutor{}
	if !runDry {
		executor = feed.NewFileActionOutbox(cfg.DataDir)
	}

	app, err := buildApp(ctx, cfg, executor)
	if err != nil {
		return err
	}
	defer app.Close()

	failures := app.runSessions(ctx)
	for account, err := range failures {
		fmt.Fprintf(os.Stderr, "account %s failed: %v\n", account, err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d account(s) failed", len(failures))
	}
	return nil
}
