package main

import (
	"os"

	"git.home.luguber.info/inful/assetpipe/cmd/assetpipe/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
