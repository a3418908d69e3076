// Package main is the entry point for the tlschannel CLI: serve and
// dial, the two sides of a record-layer pump running over TCP.
package main

import (
	"fmt"
	"os"

	"github.com/tlschannel/tlschannel/cmd"
	"github.com/tlschannel/tlschannel/config"
	"github.com/tlschannel/tlschannel/internal/utils"
	"github.com/tlschannel/tlschannel/internal/utils/log"
)

func main() {
	if err := start(); err != nil {
		fmt.Fprintln(os.Stderr, "tlschannel startup failed:", err)
		os.Exit(1)
	}
}

func start() error {
	debug := os.Getenv("TLSCHANNEL_DEBUG") != ""

	logger, err := log.New(debug)
	if err != nil {
		return fmt.Errorf("failed to start logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	defer utils.Recover(logger)

	cfg, err := config.New(os.Getenv("TLSCHANNEL_CONFIG"))
	if err != nil {
		utils.LogError(logger, err, "failed to load config")
		return err
	}

	rootCmd := cmd.Root(logger, cfg)
	return rootCmd.Execute()
}
