// Command cattrans is the CLI harness around the pure translation core: a
// thin cobra command tree that loads a PersistenceGateway, injects a real
// Clock and IDGenerator, and renders the core's pure decisions as text or
// JSON. Every actual decision (what a commit dedups to, whether a promotion
// is allowed, what a diff attributes a change to) is made inside
// internal/catcore; this package only wires I/O around it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lia-luong/catty-trans-sub000/internal/applog"
	"github.com/lia-luong/catty-trans-sub000/internal/clock"
	"github.com/lia-luong/catty-trans-sub000/internal/config"
	"github.com/lia-luong/catty-trans-sub000/internal/idgen"
	"github.com/lia-luong/catty-trans-sub000/internal/storage"
	"github.com/lia-luong/catty-trans-sub000/internal/storage/memory"
	"github.com/lia-luong/catty-trans-sub000/internal/storage/sqlite"
	"github.com/lia-luong/catty-trans-sub000/internal/workspace"
)

var (
	flagDB      string
	flagJSON    bool
	flagActor   string
	flagInMem   bool
	flagLogFile string
)

var rootCmd = &cobra.Command{
	Use:           "cattrans",
	Short:         "Local-first translation-memory workspace",
	Long:          "cattrans manages translation projects, their snapshot history, and translation-memory promotion entirely offline.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the SQLite workspace database (default .cattrans/workspace.db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "acting translator's identity (defaults to git user.name or hostname)")
	rootCmd.PersistentFlags().BoolVar(&flagInMem, "memory", false, "use a throwaway in-memory workspace instead of the SQLite file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "rotate structured logs into this file in addition to stderr")

	rootCmd.AddCommand(initCmd, segmentCmd, translateCmd, historyCmd, rollbackCmd, diffCmd, promoteCmd, verifyCmd, watchCmd, versionCmd, templateCmd)
}

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "cattrans: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "cattrans: %v\n", err)
		os.Exit(1)
	}
}

// appContext bundles the wiring every subcommand needs: a storage gateway
// (closed by the caller when done), a logger, and a ready-to-use workspace
// service.
type appContext struct {
	Store   storage.PersistenceGateway
	Service *workspace.Service
	Logger  *slog.Logger
	DBPath  string
}

func newAppContext(ctx context.Context) (*appContext, func(), error) {
	logger := applog.New(applog.Options{Level: config.GetString("log.level"), FilePath: flagLogFile})

	var store storage.PersistenceGateway
	dbPath := config.DatabasePath(flagDB)
	if flagInMem {
		store = memory.New()
	} else {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, func() {}, fmt.Errorf("creating workspace directory: %w", err)
			}
		}
		s, err := sqlite.New(ctx, dbPath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("opening workspace database: %w", err)
		}
		store = s
	}

	svc := workspace.New(store, clock.Real{}, idgen.UUID{})
	cleanup := func() { _ = store.Close() }
	return &appContext{Store: store, Service: svc, Logger: logger, DBPath: dbPath}, cleanup, nil
}

// printResult renders v as pretty JSON when --json is set, otherwise calls
// textRender to print a human-readable rendition.
func printResult(v any, textRender func()) {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	textRender()
}

func actor() string {
	return config.ResolveActor(flagActor)
}

// terminalWidth returns stdout's column width when it is an interactive
// terminal, or a conservative fallback (80) when output is redirected to a
// file or pipe.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// truncateForDisplay shortens s to fit within width columns, appending an
// ellipsis when it was cut.
func truncateForDisplay(s string, width int) string {
	if width <= 1 || len([]rune(s)) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
