package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nithin434/seriousbro/pkg/logger"
	"github.com/nithin434/seriousbro/pkg/session"
)

// sessionCmd inspects and manages the persisted browser session.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the saved browser session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved session's age and cookie count",
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved session, forcing a fresh login",
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.Session.File, logger.Nop())
	record, err := store.Load()
	if err != nil {
		return err
	}
	if record == nil {
		fmt.Printf("No saved session at %s\n", cfg.Session.File)
		return nil
	}

	fmt.Printf("Session file: %s\n", cfg.Session.File)
	fmt.Printf("Cookies:      %d\n", len(record.Cookies))
	fmt.Printf("Age:          %s\n", record.Age().Round(time.Second))
	if record.UserAgent != "" {
		fmt.Printf("User agent:   %s\n", record.UserAgent)
	}
	if record.IsStale(cfg.Session.MaxAge) {
		fmt.Printf("Status:       stale (older than %s), next run will re-login\n", cfg.Session.MaxAge)
	} else {
		fmt.Printf("Status:       fresh (max age %s)\n", cfg.Session.MaxAge)
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.Session.File, logger.Nop())
	if err := store.Delete(); err != nil {
		return err
	}
	fmt.Printf("Session cleared: %s\n", cfg.Session.File)
	return nil
}
