package main

import (
	"fmt"
	"os"

	"github.com/TheSilent01/Calendar/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(os.Args, version); err != nil {
		fmt.Fprintf(os.Stderr, "gcal: %s\n", err)
		os.Exit(1)
	}
}
