package util

import (
	"os/exec"
	"strconv"
)

// IsProcessAlive reports whether a process with the given pid shows up
// in the process table.
func IsProcessAlive(pid int) bool {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid))

	err := cmd.Run()
	if err, ok := err.(*exec.ExitError); ok {
		// ps exits zero iff the process was found
		return err.ProcessState.ExitCode() == 0
	}
	if err != nil {
		return false
	}

	return true
}
