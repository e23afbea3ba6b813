package main

import (
	"os"

	"github.com/kk-code-lab/ffind/internal/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	os.Exit(cmd.ExitCode(root.Execute()))
}
