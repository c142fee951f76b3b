package main

import (
	"flag"
	"fmt"
	"os"

	"clio/internal/app"
	"clio/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("CLIO_CONFIG"), "Path to a YAML config file (optional)")
	flag.Parse()
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "clio: unknown arguments: %v\n", flag.Args())
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clio: %v\n", err)
		os.Exit(1)
	}
	if err := app.ServeMCP(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "clio: %v\n", err)
		os.Exit(1)
	}
}
