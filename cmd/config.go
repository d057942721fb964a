package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bnema/slotbot/internal/application"
	"github.com/bnema/slotbot/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix        = "SLOTBOT"
	configDirName    = ".slotbot"
	defaultLogLevel  = "info"
	defaultLogFormat = "json"

	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"

	keyGameCommand = "game.command"
	keyGameArgs    = "game.args"
	keyGameDir     = "game.dir"

	keySessions       = "run.sessions"
	keyWorkers        = "run.workers"
	keyStake          = "run.stake"
	keyExpectTimeout  = "run.expect_timeout"
	keyRestartBackoff = "run.restart_backoff"
	keyDuration       = "run.duration"
	keyDrainTimeout   = "run.drain_timeout"
	keyListen         = "run.listen"

	keyAggressiveThreshold = "betting.aggressive_threshold"
	keyBaseFraction        = "betting.base_fraction"
	keyGrowthRate          = "betting.growth_rate"
	keyMaxFraction         = "betting.max_fraction"
	keyMaxBetCap           = "betting.max_bet_cap"

	keyPersistTimeout = "evidence.persist_timeout"
)

const (
	defaultSessions     = 1000
	defaultDrainTimeout = 10 * time.Second
)

func defaultWorkers() int {
	return runtime.NumCPU() * 2
}

// flagKeys maps command flags onto the config keys they override.
var flagKeys = map[string]string{
	"log-level":     keyLogLevel,
	"log-format":    keyLogFormat,
	"command":       keyGameCommand,
	"arg":           keyGameArgs,
	"dir":           keyGameDir,
	"sessions":      keySessions,
	"workers":       keyWorkers,
	"stake":         keyStake,
	"timeout":       keyExpectTimeout,
	"backoff":       keyRestartBackoff,
	"duration":      keyDuration,
	"drain-timeout": keyDrainTimeout,
	"listen":        keyListen,
}

func setDefaults(v *viper.Viper) {
	policy := domain.DefaultBettingPolicy()

	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)
	v.SetDefault(keyGameCommand, "java")
	v.SetDefault(keyGameArgs, []string{"starter"})
	v.SetDefault(keyGameDir, "")
	v.SetDefault(keySessions, defaultSessions)
	v.SetDefault(keyWorkers, defaultWorkers())
	v.SetDefault(keyStake, application.DefaultInitialStake)
	v.SetDefault(keyExpectTimeout, application.DefaultExpectTimeout)
	v.SetDefault(keyRestartBackoff, application.DefaultRestartBackoff)
	v.SetDefault(keyDuration, time.Duration(0))
	v.SetDefault(keyDrainTimeout, defaultDrainTimeout)
	v.SetDefault(keyListen, "")
	v.SetDefault(keyAggressiveThreshold, policy.AggressiveThreshold)
	v.SetDefault(keyBaseFraction, policy.BaseFraction)
	v.SetDefault(keyGrowthRate, policy.GrowthRate)
	v.SetDefault(keyMaxFraction, policy.MaxFraction)
	v.SetDefault(keyMaxBetCap, policy.MaxBetCap)
	v.SetDefault(keyPersistTimeout, application.DefaultPersistTimeout)
}

// loadConfig layers defaults, the config file and SLOTBOT_* variables.
// A .env file in the working directory is loaded into the environment
// first. Without an explicit path a missing config file is not an error.
func loadConfig(configFile string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		return v, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(homeDir, configDirName))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag --%s: %w", f.Name, err)
		}
	})

	// A command given on the command line does not inherit default args.
	if cmd.Flags().Changed("command") && !cmd.Flags().Changed("arg") {
		v.Set(keyGameArgs, []string{})
	}

	return bindErr
}

func bettingPolicy(v *viper.Viper) domain.BettingPolicy {
	return domain.BettingPolicy{
		AggressiveThreshold: v.GetInt64(keyAggressiveThreshold),
		BaseFraction:        v.GetFloat64(keyBaseFraction),
		GrowthRate:          v.GetFloat64(keyGrowthRate),
		MaxFraction:         v.GetFloat64(keyMaxFraction),
		MaxBetCap:           v.GetInt64(keyMaxBetCap),
	}
}
