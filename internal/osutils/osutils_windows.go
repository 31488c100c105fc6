//go:build windows

package osutils

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// OpenURL hands url to the shell's "open" verb, which starts the default
// browser. The call returns once the shell has accepted the request.
func OpenURL(url string) error {
	verbPtr, err := syscall.UTF16PtrFromString("open")
	if err != nil {
		return err
	}
	urlPtr, err := syscall.UTF16PtrFromString(url)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", url, err)
	}

	var showCmd int32 = windows.SW_SHOWNORMAL

	if err := windows.ShellExecute(0, verbPtr, urlPtr, nil, nil, showCmd); err != nil {
		return fmt.Errorf("failed to open url via ShellExecute: %w", err)
	}
	return nil
}
