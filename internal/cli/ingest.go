package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"contentdex/internal/actionlog"
	"contentdex/internal/config"
	"contentdex/internal/extract"
	"contentdex/internal/model"
	"contentdex/internal/pipeline"
	"contentdex/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a file or directory tree into the content index",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

var (
	ingestSource     string
	ingestSide       string
	ingestCountry    string
	ingestJob        string
	ingestImportance float64
	ingestYes        bool
	ingestResume     string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name (prompted when omitted)")
	ingestCmd.Flags().StringVar(&ingestSide, "side", "", "side name (prompted when omitted)")
	ingestCmd.Flags().StringVar(&ingestCountry, "country", "", "country for a newly created source")
	ingestCmd.Flags().StringVar(&ingestJob, "job", "", "job for a newly created source")
	ingestCmd.Flags().Float64Var(&ingestImportance, "importance", 0.5, "importance weight 0..1")
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "skip the confirmation prompt")
	ingestCmd.Flags().StringVar(&ingestResume, "resume", "", "resume a previous run by id")
}

func runIngest(cmd *cobra.Command, args []string) error {
	s := newStyles(os.Stderr)

	root, err := resolveRoot(args)
	if err != nil {
		exitWith(ExitPathNotFound, s.errPrefix()+" "+err.Error())
	}

	cfg, err := config.Load(config.Options{ConfigPath: globalFlags.ConfigPath})
	if err != nil {
		exitWith(ExitError, s.errPrefix()+" config: "+err.Error())
	}
	logger := newLogger()

	if cfg.DB.Driver == "postgres" && cfg.DB.Password == "" && IsTTY() {
		pw, err := ReadSecret("Database password: ")
		if err != nil {
			exitWith(ExitError, s.errPrefix()+" "+err.Error())
		}
		cfg.DB.Password = pw
	}

	db, err := store.Open(cfg, logger)
	if err != nil {
		exitWith(ExitError, s.errPrefix()+" open store: "+err.Error())
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx); err != nil {
		exitWith(ExitError, s.errPrefix()+" init schema: "+err.Error())
	}

	source, side, err := resolveTriple(ctx, db, s)
	if err != nil {
		exitWith(ExitError, s.errPrefix()+" "+err.Error())
	}

	if !ingestYes && IsTTY() {
		ok, err := confirm(fmt.Sprintf("Ingest %s as source %q, side %q?", root, source.Name, side.Name))
		if err != nil || !ok {
			return nil
		}
	}

	runID := ingestResume
	var cp *pipeline.Checkpoint
	if runID != "" {
		cp, err = pipeline.LoadCheckpoint(cfg.CheckpointDir, runID)
		if err != nil {
			exitWith(ExitError, s.errPrefix()+" resume: "+err.Error())
		}
	} else {
		runID = uuid.NewString()
		cp, err = pipeline.NewCheckpoint(cfg.CheckpointDir, runID, root, source.Name, side.Name)
		if err != nil {
			exitWith(ExitError, s.errPrefix()+" checkpoint: "+err.Error())
		}
	}

	alog, err := actionlog.New(cfg.LogDir, runID)
	if err != nil {
		exitWith(ExitError, s.errPrefix()+" action log: "+err.Error())
	}
	defer alog.Close()

	files, err := pipeline.Walk(root)
	if err != nil {
		exitWith(ExitPathNotFound, s.errPrefix()+" walk: "+err.Error())
	}
	if !globalFlags.Quiet {
		fmt.Fprintln(os.Stderr, s.kv("Run", runID))
		fmt.Fprintln(os.Stderr, s.kv("Files", fmt.Sprintf("%d", len(files))))
	}

	batch := pipeline.NewBatcher(db, cfg.BatchSize, source.ID, side.ID)
	storer := pipeline.NewStorer(db, batch, logger)
	reg := extract.NewRegistry(cfg, extract.Backends{}, logger)
	gov := pipeline.NewGovernor()
	d := pipeline.NewDispatcher(cfg, reg, storer, source.ID, side.ID, logger, alog)

	alog.Info("run_started", "ingestion run started", map[string]any{
		"root": root, "source": source.Name, "side": side.Name, "files": len(files),
	})

	summary := newRunSummary()
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		warned := false
		for res := range d.Results() {
			gov.Observe(res)
			summary.observe(res)
			if !res.Extracted && !res.Failed() {
				cp.MarkDone(res.File.Path, res.File.Digest)
			}
			if gov.Tripped() && !warned {
				warned = true
				fmt.Fprintln(os.Stderr, s.warnPrefix()+" failure threshold crossed, check the action log")
				alog.Warn("governor_tripped", "failure threshold crossed", nil)
			}
		}
	}()

	d.Start(ctx)
	submitted := 0
	for _, fi := range files {
		if ctx.Err() != nil {
			break
		}
		if cp.Done(fi.Path) {
			continue
		}
		d.Submit(fi)
		submitted++
	}
	// on interrupt, in-flight tasks get shutdown_timeout to finish before
	// the summary is printed from whatever completed
	drained := make(chan struct{})
	go func() {
		d.Drain()
		close(drained)
	}()
	select {
	case <-drained:
		<-consumed
	case <-ctx.Done():
		select {
		case <-drained:
			<-consumed
		case <-time.After(cfg.ShutdownTimeout):
		}
	}

	if err := batch.Flush(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, s.warnPrefix()+" final flush: "+err.Error())
	}

	stats := gov.Finish()
	if err := cp.Save(stats); err != nil {
		fmt.Fprintln(os.Stderr, s.warnPrefix()+" checkpoint save: "+err.Error())
	}
	alog.Info("run_finished", "ingestion run finished", map[string]any{
		"submitted": submitted, "total": stats.Total,
		"completed": stats.Completed, "failed": stats.Failed,
	})

	if !globalFlags.Quiet {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, s.warnPrefix()+" interrupted, partial statistics below")
			fmt.Fprintln(os.Stderr, s.dim("resume with: contentdex ingest --resume "+runID+" "+root))
		}
		summary.print(os.Stdout, s, stats)
	}
	return nil
}

// resolveRoot picks the ingestion root, a file or a directory, from args
// or an interactive prompt and verifies it exists.
func resolveRoot(args []string) (string, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if IsTTY() {
		var err error
		path, err = readLine("File or directory to ingest: ")
		if err != nil {
			return "", err
		}
	}
	if path == "" {
		return "", fmt.Errorf("no path given")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("path not found: %s", path)
	}
	return abs, nil
}

// resolveTriple resolves the source and side from flags, falling back to
// interactive menus on a TTY.
func resolveTriple(ctx context.Context, db *store.DB, s styles) (model.Source, model.Side, error) {
	var source model.Source
	var side model.Side
	var err error

	if ingestSource != "" {
		source, err = db.GetOrCreateSource(ctx, ingestSource, ingestCountry, ingestJob, ingestImportance)
	} else if IsTTY() {
		source, err = chooseSource(ctx, db, s)
	} else {
		err = fmt.Errorf("--source required when not running interactively")
	}
	if err != nil {
		return source, side, err
	}

	if ingestSide != "" {
		side, err = db.GetOrCreateSide(ctx, ingestSide, ingestImportance)
	} else if IsTTY() {
		side, err = chooseSide(ctx, db, s)
	} else {
		err = fmt.Errorf("--side required when not running interactively")
	}
	return source, side, err
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if globalFlags.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
