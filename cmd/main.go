package main

import (
	"os"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
