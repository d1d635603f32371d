// Command srcfn compiles and calls source functions, and inspects each step
// of their compilation. Run srcfn --help for the list of commands.
package main

import (
	"os"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/internal/maincmd"
)

// set with -ldflags "-X main.version=... -X main.buildDate=..."
var version, buildDate = "0.0.0", "unknown"

func main() {
	cmd := &maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	code := cmd.Main(os.Args, mainer.CurrentStdio())
	os.Exit(int(code))
}
