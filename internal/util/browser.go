// Package util small host helpers for the local-tool deployment mode.
package util

import (
	"os/exec"
	"runtime"
)

// browserCommands the launch attempts for a platform, most preferred first.
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"google-chrome", url},
			{"firefox", url},
			{"chromium-browser", url},
			{"sensible-browser", url},
		}
	}
}

// OpenBrowser opens url in the default browser, falling back to the common
// per-platform alternatives. Returns the last launch error when none start.
func OpenBrowser(url string) error {
	var err error
	for _, args := range browserCommands(runtime.GOOS, url) {
		if err = exec.Command(args[0], args[1:]...).Start(); err == nil {
			return nil
		}
	}
	return err
}
