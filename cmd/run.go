package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	statushttp "github.com/bnema/slotbot/internal/adapters/http/status"
	"github.com/bnema/slotbot/internal/application"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const statusShutdownTimeout = 5 * time.Second

func newRunCmd(state *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the slot game with a pool of sessions until interrupted",
		Long:  "run starts the configured number of sessions, lets at most --workers of them drive a live game process at once, and keeps the best bankroll seen. It stops on SIGINT, SIGTERM or after --duration, drains every session and prints a summary.",
		Args:  cobra.NoArgs,
		RunE:  withApp(state, runSessions),
	}

	flags := cmd.Flags()
	flags.Int("sessions", defaultSessions, "Number of sessions to play")
	flags.Int("workers", defaultWorkers(), "Maximum number of live game processes")
	flags.String("command", "java", "Game command")
	flags.StringArray("arg", []string{"starter"}, "Game argument (repeatable)")
	flags.String("dir", "", "Working directory of the game")
	flags.Int64("stake", application.DefaultInitialStake, "Bankroll every game starts with")
	flags.Duration("timeout", application.DefaultExpectTimeout, "How long to wait for each game prompt")
	flags.Duration("backoff", application.DefaultRestartBackoff, "Pause before restarting a game")
	flags.Duration("duration", 0, "Stop after this long (default: run until interrupted)")
	flags.Duration("drain-timeout", defaultDrainTimeout, "How long to wait for sessions to stop")
	flags.String("listen", "", "Serve /healthz and /status on this address")

	return cmd
}

func runSessions(cmd *cobra.Command, _ []string, app *app) error {
	r, err := app.wireRun()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := app.cfg.GetDuration(keyDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := r.service.Start(ctx, app.cfg.GetInt(keySessions)); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	started := r.service.Summary()
	r.logger.Info("run started", zap.Int("sessions", started.Sessions), zap.Int("workers", started.Workers))

	var server *statushttp.Server
	if addr := app.cfg.GetString(keyListen); addr != "" {
		server, err = statushttp.Listen(addr, statushttp.NewRouter(r.service, r.logger), r.logger)
		if err != nil {
			stop()
			_ = r.service.Stop(context.WithoutCancel(ctx))
			return fmt.Errorf("start status server: %w", err)
		}
	}

	select {
	case <-ctx.Done():
	case <-r.service.Done():
	}
	r.logger.Info("stopping run")

	drainCtx := context.WithoutCancel(ctx)
	live := func() int64 {
		return r.service.Summary().Stats.LiveProcesses
	}
	drainErr := runDrainSpinner(drainCtx, cmd.ErrOrStderr(), live, r.service.Stop)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(drainCtx, statusShutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("status server shutdown", zap.Error(err))
		}
		cancel()
	}

	summary := r.service.Summary()
	r.logger.Info("run finished",
		zap.Int64("best", summary.Best),
		zap.Int64("games", summary.Stats.GamesStarted),
		zap.Duration("elapsed", summary.Elapsed),
	)

	out, err := app.summaryRenderer(summary)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if drainErr != nil {
		return fmt.Errorf("drain run: %w", drainErr)
	}
	return nil
}
