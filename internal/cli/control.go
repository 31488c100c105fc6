package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aion/internal/input"
	"aion/internal/protocol"
)

// actionResult is the --json form of an action's outcome.
type actionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func report(cmd *cobra.Command, opts *options, msg string) error {
	if opts.jsonOutput {
		return outputJSON(cmd.OutOrStdout(), actionResult{Success: true, Message: msg})
	}
	printSuccess(cmd.OutOrStdout(), msg)
	return nil
}

// runAction runs fn against the configured server and reports its message.
func runAction(opts *options, fn func(ctx context.Context) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		msg, err := fn(cmd.Context())
		if err != nil {
			return err
		}
		return report(cmd, opts, msg)
	}
}

func parseCoordinate(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s coordinate %q", name, s)
	}
	return v, nil
}

func newControlCmds(opts *options) []*cobra.Command {
	return []*cobra.Command{
		newStatusCmd(opts),
		newModeCmd(opts),
		newMoveCmd(opts),
		newClickCmd(opts),
		newTypeCmd(opts),
		newPressCmd(opts),
		newOpenCmd(opts),
		newCaptureCmd(opts),
		newWindowsCmd(opts),
		newSwitchCmd(opts),
		newEventsCmd(opts),
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), st)
			}

			w := cmd.OutOrStdout()
			printSuccess(w, "AION Server Online")
			printLabelValue(w, "Status", st.Status)
			printLabelValue(w, "Version", st.Version)
			printLabelValue(w, "Port", strconv.Itoa(st.Port))
			printLabelValue(w, "Mode", st.Mode)
			return nil
		},
	}
}

func newModeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mode [assistant|production]",
		Short: "Show or change the operation mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			if len(args) == 0 {
				st, err := c.Status(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return outputJSON(cmd.OutOrStdout(), map[string]string{"mode": st.Mode})
				}
				printLabelValue(cmd.OutOrStdout(), "Mode", st.Mode)
				return nil
			}

			msg, err := c.SetMode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd, opts, msg)
		},
	}
}

func newMoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <x> <y>",
		Short: "Move the mouse cursor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoordinate("x", args[0])
			if err != nil {
				return err
			}
			y, err := parseCoordinate("y", args[1])
			if err != nil {
				return err
			}
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().Move(ctx, x, y)
			})(cmd, args)
		},
	}
}

func newClickCmd(opts *options) *cobra.Command {
	var (
		x, y   int
		button string
	)

	cmd := &cobra.Command{
		Use:   "click",
		Short: "Click a mouse button, optionally at a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var px, py *int
			if cmd.Flags().Changed("x") {
				px = &x
			}
			if cmd.Flags().Changed("y") {
				py = &y
			}
			if (px == nil) != (py == nil) {
				printWarning(cmd.ErrOrStderr(), "both --x and --y are needed to move before clicking")
			}
			if button != "" {
				if _, ok := input.ParseButton(button); !ok {
					printWarning(cmd.ErrOrStderr(), fmt.Sprintf("unknown button %q, the server clicks left", button))
				}
			}
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().Click(ctx, px, py, button)
			})(cmd, args)
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "X coordinate to move to before clicking")
	cmd.Flags().IntVar(&y, "y", 0, "Y coordinate to move to before clicking")
	cmd.Flags().StringVar(&button, "button", "", "Button to click: left, right or middle")
	return cmd
}

func newTypeCmd(opts *options) *cobra.Command {
	var interval uint64

	cmd := &cobra.Command{
		Use:   "type <text>",
		Short: "Type text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ip *uint64
			if cmd.Flags().Changed("interval") {
				ip = &interval
			}
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().Type(ctx, args[0], ip)
			})(cmd, args)
		},
	}

	cmd.Flags().Uint64Var(&interval, "interval", 0, "Milliseconds between characters in assistant mode")
	return cmd
}

func newPressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "press <key>",
		Short: "Press a named key",
		Long: `Press a named key. Supported keys: enter (return), tab, escape (esc), space,
backspace, delete (del), up, down, left, right, home, end, pageup, pagedown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().Press(ctx, args[0])
			})(cmd, args)
		},
	}
}

func newOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Open a URL in the default browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().OpenURL(ctx, args[0])
			})(cmd, args)
		},
	}
}

func newCaptureCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Save a screenshot as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shot, err := opts.client().Capture(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, shot.PNG, 0644); err != nil {
				return fmt.Errorf("write screenshot: %w", err)
			}
			return report(cmd, opts, fmt.Sprintf("Screenshot %dx%d saved to %s", shot.Width, shot.Height, output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "screenshot.png", "File to write the PNG to")
	return cmd
}

func newWindowsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List open windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			windows, err := opts.client().Windows(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), windows)
			}

			w := cmd.OutOrStdout()
			printSuccess(w, fmt.Sprintf("Found %d windows", len(windows)))
			for _, win := range windows {
				printLabelValue(w, fmt.Sprintf("%s (%d)", win.Name, win.PID), win.Title)
			}
			return nil
		},
	}
}

func newSwitchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Focus the window of a process by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(opts, func(ctx context.Context) (string, error) {
				return opts.client().SwitchWindow(ctx, args[0])
			})(cmd, args)
		},
	}
}

func newEventsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream action and mode events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return followEvents(ctx, cmd, opts)
		},
	}
}

// eventLine is the --json form of a streamed event.
type eventLine struct {
	Type    protocol.MessageType `json:"type"`
	Action  string               `json:"action,omitempty"`
	Message string               `json:"message,omitempty"`
	Mode    string               `json:"mode,omitempty"`
	Time    time.Time            `json:"time"`
}

func followEvents(ctx context.Context, cmd *cobra.Command, opts *options) error {
	w := cmd.OutOrStdout()
	emit := func(ev eventLine) {
		if opts.jsonOutput {
			_ = outputJSON(w, ev)
			return
		}
		stamp := ev.Time.Format("15:04:05.000")
		switch ev.Type {
		case protocol.TypeMode:
			printLabelValue(w, stamp+" mode", ev.Mode)
		case protocol.TypeError:
			printWarning(w, ev.Message)
		default:
			printLabelValue(w, stamp+" "+ev.Action, fmt.Sprintf("%s [%s]", ev.Message, ev.Mode))
		}
	}

	s := opts.client().Events()
	s.OnReady = func() {
		if !opts.jsonOutput {
			printSuccess(w, "Listening for events on "+opts.addr)
		}
	}
	s.OnDisconnect = func() {
		if ctx.Err() == nil && !opts.jsonOutput {
			printWarning(w, "Connection lost, reconnecting...")
		}
	}
	s.OnAction = func(p protocol.ActionPayload) {
		emit(eventLine{
			Type:    protocol.TypeAction,
			Action:  p.Action,
			Message: p.Message,
			Mode:    p.Mode,
			Time:    time.UnixMilli(p.Timestamp),
		})
	}
	s.OnMode = func(m string) {
		emit(eventLine{Type: protocol.TypeMode, Mode: m, Time: time.Now()})
	}
	s.OnError = func(msg string) {
		emit(eventLine{Type: protocol.TypeError, Message: msg, Time: time.Now()})
	}
	return s.Run(ctx)
}
