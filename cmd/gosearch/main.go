package main

import (
	"os"

	"github.com/dl/gosearch/internal/cli"
)

func main() {
	args := append(cli.LoadConfigArgs(), os.Args[1:]...)
	os.Exit(cli.Execute(args))
}
