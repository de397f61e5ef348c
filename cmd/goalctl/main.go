// Command goalctl plans SIP goals and manages the NAV history store from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/aristath/goalsip/internal/cli"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
