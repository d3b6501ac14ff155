// Package integration wraps the tracker's external collaborators: the OS
// screen-grab and window-title tools and the remote LLM endpoints.
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// ScreenCapturer captures the screen into an image file and returns its path.
type ScreenCapturer interface {
	Capture() (string, error)
}

// osScreenCapturer implements ScreenCapturer by shelling out to the
// OS-specific capture tool.
type osScreenCapturer struct {
	dir string
	now func() time.Time
}

// NewScreenCapturer creates a ScreenCapturer that writes timestamped PNG
// files into dir, creating it on first use.
func NewScreenCapturer(dir string) ScreenCapturer {
	return &osScreenCapturer{dir: dir, now: time.Now}
}

// Capture takes a full-screen screenshot. On macOS it uses screencapture,
// on Linux it uses gnome-screenshot with import (ImageMagick) as fallback.
// The returned path points at the saved file.
func (c *osScreenCapturer) Capture() (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	name := fmt.Sprintf("screenshot_%s.png", c.now().Format("20060102_150405"))
	path := filepath.Join(c.dir, name)

	var cmds []*exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmds = []*exec.Cmd{exec.Command("screencapture", "-x", path)}
	case "linux":
		cmds = []*exec.Cmd{
			exec.Command("gnome-screenshot", "-f", path),
			exec.Command("import", "-window", "root", path),
		}
	default:
		return "", fmt.Errorf("unsupported OS for screenshot capture: %s", runtime.GOOS)
	}

	var lastErr error
	for _, cmd := range cmds {
		output, err := cmd.CombinedOutput()
		if err != nil {
			lastErr = fmt.Errorf("screenshot capture failed: %s: %w", string(output), err)
			continue
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			lastErr = fmt.Errorf("capture tool produced no image at %s", path)
			continue
		}
		return path, nil
	}
	return "", lastErr
}
