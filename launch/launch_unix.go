//go:build !windows
// +build !windows

package launch

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsDoubleClick returns true if the program was launched by double-click
// On Unix, we check if stdin is a TTY - if not, likely double-clicked
func IsDoubleClick() bool {
	// If spawned by ourselves, don't re-spawn
	if Spawned() {
		return false
	}

	// Without a display there is no window to open (cron, ssh, CI)
	if !hasDisplay() {
		return false
	}

	return !isatty.IsTerminal(os.Stdin.Fd())
}

func hasDisplay() bool {
	if runtime.GOOS == "darwin" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

type terminal struct {
	name string
	args []string
}

// terminals lists emulators in order of preference, each running exe with args.
func terminals(exe string, args []string) []terminal {
	argv := append([]string{exe}, args...)
	return []terminal{
		{"x-terminal-emulator", append([]string{"-e"}, argv...)},
		{"gnome-terminal", append([]string{"--"}, argv...)},
		{"konsole", append([]string{"-e"}, argv...)},
		{"xfce4-terminal", []string{"-e", strings.Join(argv, " ")}},
		{"xterm", append([]string{"-e"}, argv...)},
	}
}

// SpawnTerminal starts the executable again in a new terminal window with args.
func SpawnTerminal(args ...string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	env := spawnEnv()

	// On macOS, use open command
	if runtime.GOOS == "darwin" {
		openArgs := append([]string{"-a", "Terminal", exe, "--args"}, args...)
		cmd := exec.Command("open", openArgs...)
		cmd.Env = env
		return cmd.Start()
	}

	for _, term := range terminals(exe, args) {
		if _, err := exec.LookPath(term.name); err == nil {
			cmd := exec.Command(term.name, term.args...)
			cmd.Env = env
			if err := cmd.Start(); err == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("no terminal emulator found")
}
