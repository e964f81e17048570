package main

import (
	"os"

	"github.com/jyoonje/collabview-plugin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
