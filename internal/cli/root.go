// Package cli implements the aion command line: the server itself and a
// client for driving a running server.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aion/internal/client"
)

var (
	// Colors for help output sections
	groupTitleColor = color.New(color.FgCyan, color.Bold)

	version = "dev"
)

// options holds the global flags shared by every subcommand.
type options struct {
	addr       string
	token      string
	jsonOutput bool
}

func (o *options) client() *client.Client {
	return client.New(o.addr, o.token)
}

// rootCmd is the command tree used by Execute.
var rootCmd = newRootCmd()

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
	rootCmd.Version = v
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "aion",
		Version: version,
		Short:   "Local input control server",
		Long: `aion runs a loopback HTTP server that moves the mouse, clicks, types and
opens URLs on behalf of local automation tools.

Run without a subcommand to start the server.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.addr, "addr", client.DefaultAddr, "Server address for client commands")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "API token for client commands")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	cmd.AddGroup(&cobra.Group{ID: "server", Title: groupTitleColor.Sprint("Server:")})
	cmd.AddGroup(&cobra.Group{ID: "control", Title: groupTitleColor.Sprint("Control:")})

	serve := newServeCmd()
	serve.GroupID = "server"
	cmd.AddCommand(serve)

	// The bare command starts the server with default serve flags.
	cmd.RunE = serve.RunE

	autostart := newAutostartCmd(opts)
	autostart.GroupID = "server"
	cmd.AddCommand(autostart)

	cfg := newConfigCmd(opts)
	cfg.GroupID = "server"
	cmd.AddCommand(cfg)

	for _, c := range newControlCmds(opts) {
		c.GroupID = "control"
		cmd.AddCommand(c)
	}

	return cmd
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
