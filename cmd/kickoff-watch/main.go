package main

import (
	"github.com/pfrederiksen/kickoff-watch/internal/cli"
)

var version = "dev"

func main() {
	cli.Execute(version)
}
