package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"aion/internal/autostart"
)

func newAutostartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the server on login",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Start the server on login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Enable(); err != nil {
				return fmt.Errorf("enable autostart: %w", err)
			}
			msg := "Autostart enabled"
			if path, err := autostart.Path(); err == nil {
				msg = fmt.Sprintf("Autostart enabled (%s)", path)
			}
			return report(cmd, opts, msg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Stop starting the server on login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Disable(); err != nil {
				return fmt.Errorf("disable autostart: %w", err)
			}
			return report(cmd, opts, "Autostart disabled")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether autostart is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := autostart.IsEnabled()
			if opts.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]bool{"enabled": enabled})
			}
			if enabled {
				printLabelValue(cmd.OutOrStdout(), "Autostart", "enabled")
			} else {
				printLabelValue(cmd.OutOrStdout(), "Autostart", "disabled")
			}
			return nil
		},
	})

	return cmd
}
