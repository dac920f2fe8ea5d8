package main

import (
	"os"
)

// Version information, set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	setVersionInfo(version, commit)

	// Errors are printed by the printer package
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
