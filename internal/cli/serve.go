package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aion/internal/api"
	"aion/internal/config"
	"aion/internal/dispatcher"
	"aion/internal/input"
	"aion/internal/mode"
	"aion/internal/tray"
)

type serveOptions struct {
	configPath string
	port       int
	noTray     bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the input control server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Override the configured port")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "Run without the system tray icon")
	return cmd
}

func newConfigManager(path string) (*config.Manager, error) {
	if path != "" {
		return config.NewManagerAt(path), nil
	}
	m, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	return m, nil
}

func loadConfig(path string) (*config.Manager, error) {
	cfgMgr, err := newConfigManager(path)
	if err != nil {
		return nil, err
	}

	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config %s: %v", cfgMgr.Path(), err)
	}
	return cfgMgr, nil
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfgMgr, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()
	if opts.port > 0 {
		cfg.General.Port = opts.port
	}

	initial, err := mode.Parse(cfg.General.DefaultMode)
	if err != nil {
		log.Printf("Config: default_mode %q: %v; starting in assistant mode", cfg.General.DefaultMode, err)
		initial = mode.Assistant
	}

	device, err := input.NewDevice()
	if err != nil {
		return fmt.Errorf("input device unavailable: %w", err)
	}

	state := mode.NewState(initial)
	d := dispatcher.New(device, state, dispatcher.WithTiming(dispatcher.TimingFromConfig(cfg.Timing)))

	srv := api.NewServer(cfg.General, d)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(ctx)
	}()

	log.Printf("AION Server %s running in %s mode. Press Ctrl+C to stop.", api.Version, initial)

	if opts.noTray || !cfg.General.ShowTray {
		return waitServe(ctx, serveErr)
	}
	return runWithTray(ctx, stop, newTray(d, state), serveErr)
}

// waitServe blocks until the server stops, either on its own or after ctx
// is cancelled and shutdown completes.
func waitServe(ctx context.Context, serveErr <-chan error) error {
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Println("Shutting down...")
		return <-serveErr
	}
}

// runWithTray runs the tray loop on the calling goroutine, which must be the
// main one on macOS. Quitting from the menu cancels ctx.
func runWithTray(ctx context.Context, cancel context.CancelFunc, t *tray.Tray, serveErr <-chan error) error {
	result := make(chan error, 1)
	go func() {
		result <- waitServe(ctx, serveErr)
		t.Stop()
	}()
	go func() {
		<-t.Done()
		cancel()
	}()

	t.Run()
	return <-result
}

// newTray builds the tray menu. The mode items track the shared state, so a
// change made over HTTP is reflected in the menu.
func newTray(d *dispatcher.Dispatcher, state *mode.State) *tray.Tray {
	t := tray.New(fmt.Sprintf("AION Server %s", api.Version))

	current := state.Get()
	assistantID := t.AddCheckItem("Mode: Assistant", current == mode.Assistant, func() {
		setModeFromTray(d, mode.Assistant)
	})
	productionID := t.AddCheckItem("Mode: Production", current == mode.Production, func() {
		setModeFromTray(d, mode.Production)
	})

	state.OnChange(func(m mode.Mode) {
		t.SetItemChecked(assistantID, m == mode.Assistant)
		t.SetItemChecked(productionID, m == mode.Production)
	})

	t.AddSeparator()
	t.AddMenuItem("Quit", t.Stop)
	return t
}

func setModeFromTray(d *dispatcher.Dispatcher, m mode.Mode) {
	if _, err := d.SetMode(m.String()); err != nil {
		log.Printf("Tray: mode change failed: %v", err)
	}
}
