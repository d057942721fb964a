package process

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const (
	commandKey = "game.command"
	argsKey    = "game.args"
	dirKey     = "game.dir"
	envKey     = "game.env"
)

// Config describes how to start one instance of the slot game.
type Config struct {
	Command string
	Args    []string
	Dir     string
	// Env is appended to the parent environment.
	Env []string
}

func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("viper instance is nil")
	}

	cfg := Config{
		Command: v.GetString(commandKey),
		Args:    v.GetStringSlice(argsKey),
		Dir:     v.GetString(dirKey),
		Env:     v.GetStringSlice(envKey),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("%s is required", commandKey)
	}

	return nil
}
