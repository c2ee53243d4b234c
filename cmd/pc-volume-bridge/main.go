package main

import (
	"os"

	"pc-volume-bridge/internal/adapter/primary/cli"
)

func main() {
	os.Exit(cli.Execute())
}
