package main

import (
	"os"

	"github.com/nholik/fleetctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
