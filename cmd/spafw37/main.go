package main

import (
	"os"

	"github.com/minouris/spafw37-sub001/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
