// Command inspect prints a read-only report of a Badger store: every profile
// with its balance checked against its ledger, and optionally every
// conversation with its activity.
package main

import (
	"context"
	"cryptochat/repositories"
	"cryptochat/services"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	dbPath := flag.String("db", cfg.BadgerFilepath, "Path to badger DB")
	conversations := flag.Bool("conversations", false, "Also list conversations")
	flag.Parse()

	log := logs.GetLoggerFromString(cfg.LogLevel)
	db, err := openDB(*dbPath)
	if err != nil {
		return fmt.Errorf("error while opening Badger: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	repos := repositories.NewBadgerRepositories(db, log, nil)
	ledger := services.NewLedgerService(repos.Transactions, repos.Profiles, log)

	rows, err := collectLedger(ctx, repos.Profiles, ledger)
	if err != nil {
		return err
	}
	drifting := renderLedger(os.Stdout, rows, cfg.Colours)

	if *conversations {
		summaries, err := collectConversations(ctx, repos.Conversations, repos.Messages)
		if err != nil {
			return err
		}
		fmt.Println()
		renderConversations(os.Stdout, summaries)
	}

	if drifting > 0 {
		return fmt.Errorf("%d profile(s) with a balance different from their ledger", drifting)
	}
	return nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("%w: start the server once to repair the value log", err)
	}
	return db, err
}
