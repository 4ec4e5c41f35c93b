// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package main provides the entry point for the recanon CLI.
//
// recanon strips identifying data (player names, ratings, chat) from
// recorded-game files while keeping them structurally valid.
//
// Usage:
//
//	recanon match.rec
//	recanon -o clean.rec match.rec
//	recanon --out-dir anonymized/ *.rec
//
// See --help for all available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// main is the entry point for recanon.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
