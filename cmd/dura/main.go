package main

import (
	"os"
	"os/exec"

	"github.com/bashhack/dura/internal/cli"
)

func main() {
	if len(os.Args) > 1 {
		if handled, code := cli.TryPassthrough(os.Args[1], os.Args[2:], exec.LookPath); handled {
			os.Exit(code)
		}
	}
	cli.Execute()
}
