package cmd

import (
	"github.com/bnema/slotbot/internal/logging"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string
	state := &appState{}

	rootCmd := &cobra.Command{
		Use:           "slotbot",
		Short:         "slotbot: drive console slot games and keep the high score",
		Long:          "slotbot runs many sessions of an interactive console slot game in parallel, bets with an adaptive policy, and keeps the highest bankroll ever reached together with a rendered transcript as evidence.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(cfg, cmd); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.GetString(keyLogLevel),
				Format: cfg.GetString(keyLogFormat),
			}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, err := wireApp(cmd.Context(), cfg, logger)
			if err != nil {
				_ = logger.Sync()
				return err
			}
			state.app = app
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if state.app != nil {
				state.app.close()
				_ = state.app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $HOME/.slotbot/config.toml)")
	rootCmd.PersistentFlags().String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", defaultLogFormat, "Log format: json or console")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(state),
		newRecordsCmd(state),
	)

	return rootCmd
}

// appState hands the app wired in PersistentPreRunE to the subcommands.
type appState struct {
	app *app
}

// withApp runs fn with the wired app and releases it afterwards, whether
// or not fn fails.
func withApp(state *appState, fn func(*cobra.Command, []string, *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app := state.app
		defer func() {
			app.close()
			_ = app.logger.Sync()
		}()
		return fn(cmd, args, app)
	}
}
