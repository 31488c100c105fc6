//go:build !windows

package osutils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the launcher for url on this platform.
func browserCommand(url string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	}
	return nil, fmt.Errorf("OpenURL not supported on %s", runtime.GOOS)
}

// OpenURL starts the default browser on url without waiting for it.
func OpenURL(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	// Reap the launcher in the background; its exit status is not reported.
	go cmd.Wait()
	return nil
}
