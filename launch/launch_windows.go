//go:build windows
// +build windows

package launch

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"
)

var (
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procGetConsoleProcessList = kernel32.NewProc("GetConsoleProcessList")
)

const createNewConsole = 0x00000010

// IsDoubleClick returns true if the program was launched by double-click
// On Windows, GetConsoleProcessList returns 1 when double-clicked (only our process)
// and > 1 when run from an existing terminal
func IsDoubleClick() bool {
	if Spawned() {
		return false
	}

	var processes [2]uint32
	ret, _, _ := procGetConsoleProcessList.Call(
		uintptr(unsafe.Pointer(&processes[0])),
		uintptr(2),
	)
	return ret == 1
}

// SpawnTerminal starts the executable again in a new console window with args.
func SpawnTerminal(args ...string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmdArgs := append([]string{"/c", "start", "", exe}, args...)
	cmd := exec.Command("cmd", cmdArgs...)
	cmd.Env = spawnEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewConsole,
	}
	return cmd.Start()
}
