package main

import (
	"os"

	"github.com/noah-isme/gradepro-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Stderr))
}
