// Command metafmt assembles metadata documents from templates.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/metafmt/internal/cli"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// EnvTestPanic makes the binary panic on start, to exercise the exit code.
const EnvTestPanic = "METAFMT_TEST_PANIC"

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "metafmt crashed: %v\n\n%s", r, debug.Stack())
			code = metafmt.ExitPanic
		}
	}()
	if os.Getenv(EnvTestPanic) == "1" {
		panic("panic requested by " + EnvTestPanic)
	}
	return metafmt.ExitCodeForError(cli.Execute())
}
