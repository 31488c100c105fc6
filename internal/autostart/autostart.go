// Package autostart provides auto-start functionality.
package autostart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// Label identifies the login item on every platform.
const Label = "com.aion.server"

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>serve</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=AION Server
Comment=Local input control server
Exec="{{.ExecutablePath}}" serve
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

type entryData struct {
	Label          string
	ExecutablePath string
}

// Enable enables auto-start on login
func Enable() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	path, tmpl, err := entryPath()
	if err != nil {
		return err
	}

	data, err := render(tmpl, execPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Disable disables auto-start on login
func Disable() error {
	path, _, err := entryPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	path, _, err := entryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Path returns the login item file for the current platform.
func Path() (string, error) {
	path, _, err := entryPath()
	return path, err
}

func entryPath() (string, string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", Label+".plist"), macLaunchAgentPlist, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			dir = filepath.Join(home, ".config")
		}
		return filepath.Join(dir, "autostart", Label+".desktop"), xdgDesktopEntry, nil
	default:
		// Windows needs a registry Run key; use shell:startup manually for now.
		return "", "", fmt.Errorf("auto-start is not supported on %s", runtime.GOOS)
	}
}

func render(tmpl, execPath string) ([]byte, error) {
	t, err := template.New("entry").Parse(tmpl)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, entryData{Label: Label, ExecutablePath: execPath}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
