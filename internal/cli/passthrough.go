package cli

import (
	"os"
	"os/exec"
)

// TryPassthrough implements spec §6's `dura-<name>` fallback: if verb is not
// one of dura's own verbs, look for an executable named dura-<name> on PATH
// and, if found, run it with rest, inheriting this process's standard
// streams. It reports whether it handled the invocation and the exit code
// the caller should use; when handled is false the caller should fall
// through to the normal cobra dispatch instead.
func TryPassthrough(verb string, rest []string, lookPath func(string) (string, error)) (handled bool, code int) {
	if verb == "" || IsKnownVerb(verb) {
		return false, 0
	}

	target, err := lookPath("dura-" + verb)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(target, rest...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if runErr := cmd.Run(); runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return true, exitErr.ExitCode()
		}
		return true, 1
	}
	return true, 0
}
