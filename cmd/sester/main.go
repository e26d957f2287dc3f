package main

import (
	"os"

	"github.com/sester-lang/sester/pkg/cli"
)

func main() {
	os.Exit(cli.Entry(os.Args[1:], os.Stderr))
}
