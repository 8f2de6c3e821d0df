package main

import (
	"os"

	"github.com/sprite-ai/reviewdesk/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
