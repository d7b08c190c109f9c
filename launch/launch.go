// Package launch handles starting the tools from a file manager, where no
// terminal is attached: the executable re-opens itself in a terminal window
// with the progress view.
package launch

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// SpawnedEnv is set in the environment of a re-spawned process.
const SpawnedEnv = "_CARIMAGES_SPAWNED"

// Spawned reports whether this process was started by SpawnTerminal.
func Spawned() bool {
	return os.Getenv(SpawnedEnv) == "1"
}

// Pause keeps a spawned terminal window open until Enter is pressed.
func Pause(r io.Reader, w io.Writer) {
	fmt.Fprint(w, "\nPress Enter to close this window...")
	bufio.NewReader(r).ReadString('\n')
}

func spawnEnv() []string {
	return append(os.Environ(), SpawnedEnv+"=1")
}
