package main

import (
	"os"

	"github.com/helpdeskhq/helpdesk/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
