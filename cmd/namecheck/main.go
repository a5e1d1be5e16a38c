package main

import (
	"os"

	"confessions/backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
