// Command colladmin runs the development backend and drives collections
// from the terminal through the admin core.
package main

import (
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. With --trace the
// buffered log of a failed command is dumped to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if a.trace && a.sink != nil {
			_ = a.sink.Flush(stderr)
		}
		return 1
	}
	return 0
}
