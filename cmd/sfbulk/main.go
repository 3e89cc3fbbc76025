// Package main is the entry point for the sfbulk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/open-cli-collective/sfbulk/internal/cmd/completion"
	"github.com/open-cli-collective/sfbulk/internal/cmd/configcmd"
	"github.com/open-cli-collective/sfbulk/internal/cmd/initcmd"
	"github.com/open-cli-collective/sfbulk/internal/cmd/jobcmd"
	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

func run() error {
	rootCmd, opts := root.NewCmd()
	defer func() { _ = opts.Logger().Sync() }()

	root.RegisterCommands(rootCmd, opts,
		initcmd.Register,
		configcmd.Register,
		jobcmd.Register,
		completion.Register,
	)

	return rootCmd.Execute()
}
