package execution

import "os/exec"

func initCmd(cmd *exec.Cmd) {
	// No-op on Windows.
}

func (p *proc) killTree(_ bool) error {
	return p.cmd.Process.Kill()
}
