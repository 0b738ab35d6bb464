package main

import (
	"os"

	"basilc/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
