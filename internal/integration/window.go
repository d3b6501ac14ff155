package integration

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// WindowTitler reports the title of the currently focused window.
type WindowTitler interface {
	ActiveWindowTitle() (string, error)
}

type osWindowTitler struct{}

// NewWindowTitler creates a WindowTitler backed by OS tools: osascript on
// macOS, xdotool on Linux.
func NewWindowTitler() WindowTitler {
	return &osWindowTitler{}
}

// ActiveWindowTitle returns the focused window's title. A successful lookup
// with no focused window yields models.AppNoActiveWindow rather than an
// error; callers substitute their own sentinel on error.
func (w *osWindowTitler) ActiveWindowTitle() (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e",
			`tell application "System Events" to get name of first application process whose frontmost is true`)
	case "linux":
		cmd = exec.Command("xdotool", "getactivewindow", "getwindowname")
	default:
		return "", fmt.Errorf("unsupported OS for window title lookup: %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("window title lookup failed: %s: %w", string(output), err)
	}

	title := strings.TrimSpace(string(output))
	if title == "" {
		return models.AppNoActiveWindow, nil
	}
	return title, nil
}
