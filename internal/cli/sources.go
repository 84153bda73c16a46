package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"contentdex/internal/config"
	"contentdex/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources [search]",
	Short: "List known sources",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSources,
}

var sidesCmd = &cobra.Command{
	Use:   "sides [search]",
	Short: "List known sides",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSides,
}

var listLimit int

func init() {
	sourcesCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows to list")
	sidesCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows to list")
}

func openForList(ctx context.Context) (*store.DB, error) {
	cfg, err := config.Load(config.Options{ConfigPath: globalFlags.ConfigPath})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := store.Open(cfg, newLogger())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openForList(ctx)
	if err != nil {
		exitWith(ExitError, "ERROR: "+err.Error())
	}
	defer db.Close()

	search := ""
	if len(args) > 0 {
		search = args[0]
	}
	sources, err := db.ListSources(ctx, search, listLimit)
	if err != nil {
		exitWith(ExitError, "ERROR: "+err.Error())
	}

	s := newStyles(os.Stdout)
	for _, src := range sources {
		fmt.Printf("%s %s\n", src.Name,
			s.dim(fmt.Sprintf("country=%s job=%s importance=%.1f", orDash(src.Country), orDash(src.Job), src.Importance)))
	}
	return nil
}

func runSides(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openForList(ctx)
	if err != nil {
		exitWith(ExitError, "ERROR: "+err.Error())
	}
	defer db.Close()

	search := ""
	if len(args) > 0 {
		search = args[0]
	}
	sides, err := db.ListSides(ctx, search, listLimit)
	if err != nil {
		exitWith(ExitError, "ERROR: "+err.Error())
	}

	s := newStyles(os.Stdout)
	for _, side := range sides {
		fmt.Printf("%s %s\n", side.Name, s.dim(fmt.Sprintf("importance=%.1f", side.Importance)))
	}
	return nil
}
