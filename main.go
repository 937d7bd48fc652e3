package main

import (
	"fmt"
	"os"

	"github.com/tphakala/tom-alerce/cmd"
	"github.com/tphakala/tom-alerce/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = ""
	buildDate = ""
)

func main() {
	info := buildinfo.New(version, buildDate)

	if err := cmd.RootCommand(info).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
