// Package commands implements the cubectl CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sifteo/cubeconnectord/internal/store"
)

var (
	// dbPath is the SQLite pairing-store file cubectl opens directly;
	// cubeconnectord owns the same file while running, so commands that
	// write (forget) should only be used while the daemon is stopped.
	dbPath string

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string
)

// rootCmd is the top-level cobra command for cubectl.
var rootCmd = &cobra.Command{
	Use:   "cubectl",
	Short: "CLI client for the cubeconnectord pairing store",
	Long:  "cubectl reads and edits the cubeconnectord SQLite pairing store directly.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "cubeconnectord.db",
		"path to the cubeconnectord SQLite pairing store")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(pairingsCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// openStore opens the pairing store at the configured dbPath.
func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open pairing store %s: %w", dbPath, err)
	}
	return st, nil
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
