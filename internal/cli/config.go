package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aion/internal/config"
	"aion/internal/mode"
)

// configKeys lists the keys accepted by "config set", in display order.
var configKeys = []string{
	"port", "api_token", "default_mode", "show_tray", "rate_limit_rps", "rate_limit_burst",
	"move_steps", "step_delay_ms", "click_settle_ms", "type_interval_ms",
}

func newConfigCmd(opts *options) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the server configuration",
	}
	cmd.PersistentFlags().StringVar(&path, "config", "", "Path to the configuration file")

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newConfigManager(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newConfigManager(path)
			if err != nil {
				return err
			}
			if err := m.Load(); err != nil {
				return fmt.Errorf("load %s: %w", m.Path(), err)
			}
			return outputJSON(cmd.OutOrStdout(), m.Get())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newConfigManager(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(m.Path()); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", m.Path())
			}
			if err := m.Save(); err != nil {
				return fmt.Errorf("save %s: %w", m.Path(), err)
			}
			return report(cmd, opts, fmt.Sprintf("Wrote default configuration to %s", m.Path()))
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Long:  "Change one configuration value. Keys: " + strings.Join(configKeys, ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newConfigManager(path)
			if err != nil {
				return err
			}
			if err := m.Load(); err != nil {
				return fmt.Errorf("load %s: %w", m.Path(), err)
			}

			cfg := m.Get()
			if err := setConfigValue(&cfg, args[0], args[1]); err != nil {
				return err
			}
			m.Set(cfg)
			if err := m.Save(); err != nil {
				return fmt.Errorf("save %s: %w", m.Path(), err)
			}
			return report(cmd, opts, fmt.Sprintf("Set %s = %s (restart the server to apply)", args[0], args[1]))
		},
	})

	return cmd
}

var errUnknownKey = errors.New("unknown config key")

// setConfigValue parses value into the field named by key.
func setConfigValue(cfg *config.Config, key, value string) error {
	intField := map[string]*int{
		"port":             &cfg.General.Port,
		"rate_limit_rps":   &cfg.General.RateLimitRPS,
		"rate_limit_burst": &cfg.General.RateLimitBurst,
		"move_steps":       &cfg.Timing.MoveSteps,
		"step_delay_ms":    &cfg.Timing.StepDelayMs,
		"click_settle_ms":  &cfg.Timing.ClickSettleMs,
		"type_interval_ms": &cfg.Timing.TypeIntervalMs,
	}

	switch key {
	case "api_token":
		cfg.General.APIToken = value
	case "default_mode":
		m, err := mode.Parse(value)
		if err != nil {
			return fmt.Errorf("default_mode: %w", err)
		}
		cfg.General.DefaultMode = m.String()
	case "show_tray":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("show_tray: %q is not a boolean", value)
		}
		cfg.General.ShowTray = b
	default:
		field, ok := intField[key]
		if !ok {
			return fmt.Errorf("%w %q", errUnknownKey, key)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, value)
		}
		*field = n
	}
	return nil
}
