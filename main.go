package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/levmv/photomover/organize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// errProblems marks a run that finished but skipped some files or
// directories. It maps to exit status 2.
var errProblems = errors.New("finished with problems")

const longHelp = `photomover sorts photo (and optionally video) files by capture date.

  move <source> <output>  move files into <output>/<year>/00001.jpg, ...
  rename <dir>            renumber each directory's files by capture date
  clean <dir>             delete directory trees holding no tracked files

The capture date is read from EXIF (or the movie header for videos) and
falls back to the file's modification time.

Runs are not transactional. If a run stops partway, files already handled
stay where they were put and the rest stay where they were. A file whose
target name was taken by a file not yet handled may be left under a
tmp_<id> name in the same directory; nothing is overwritten.

Exit status is 0 on success, 1 when the run could not start, and 2 when
it finished but some files or directories could not be handled.`

type app struct {
	stderr     io.Writer
	flags      Config
	configPath string

	cfg  Config
	log  *slog.Logger
	meta *MetadataService
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	a := &app{stderr: stderr, flags: DefaultConfig()}
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if a.meta != nil {
		a.meta.Close()
	}
	if a.log == nil {
		a.log = slog.New(newConsoleHandler(stderr, slog.LevelWarn))
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errProblems):
		a.log.Warn(err.Error())
		return 2
	default:
		a.log.Error(err.Error())
		return 1
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "photomover",
		Short:             "Sort photos and videos into year folders and numbered names",
		Long:              longHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	a.flags.bindFlags(root.PersistentFlags())
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML file with default settings")

	root.AddCommand(
		&cobra.Command{
			Use:   "move <source> <output>",
			Short: "Move tracked files into <output>/<year>/<seq><ext>",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMove(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "rename <dir>",
			Short: "Renumber the tracked files of every directory by capture date",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runRename(args[0])
			},
		},
		&cobra.Command{
			Use:   "clean <dir>",
			Short: "Delete directory trees that hold no tracked files",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runClean(args[0])
			},
		},
	)
	return root
}

// setup resolves the config file and flags into a.cfg and builds the
// logger and metadata reader.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = LoadFile(a.configPath); err != nil {
			return err
		}
	}
	cfg.overlay(a.flags, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return err
	}
	setColorMode(cfg.Color)

	a.cfg = cfg
	a.log = slog.New(newConsoleHandler(a.stderr, levelFor(cfg.Verbose)))
	a.meta = &MetadataService{UseExiftool: cfg.Exiftool, Logger: a.log}
	a.log.Debug("config", "extensions", fmt.Sprint(cfg.TrackedExtensions().List()), "pad", cfg.Pad, "tags", cfg.TagPolicy, "dry_run", cfg.DryRun)
	return nil
}

func (a *app) options() organize.Options {
	opts := a.cfg.Options()
	opts.Reader = a.meta
	opts.Logger = a.log
	return opts
}

func (a *app) runMove(src, out string) error {
	opts := a.options()
	var bar *progressbar.ProgressBar
	if a.cfg.Progress {
		absOut, _ := filepath.Abs(out)
		bar = newProgress(a.stderr, "moving", opts.Extensions, opts.WalkOptions(absOut), src)
		opts.OnFile = tick(bar)
	}

	start := time.Now()
	st, err := organize.NewMover(out, opts).Run(src)
	return a.finish("move", st, err, bar, start)
}

func (a *app) runRename(dir string) error {
	opts := a.options()
	var bar *progressbar.ProgressBar
	if a.cfg.Progress {
		bar = newProgress(a.stderr, "renaming", opts.Extensions, opts.WalkOptions(), dir)
		opts.OnFile = tick(bar)
	}

	start := time.Now()
	st, err := organize.NewRenamer(opts).Run(dir)
	return a.finish("rename", st, err, bar, start)
}

func (a *app) runClean(dir string) error {
	start := time.Now()
	p := organize.NewPruner(a.cfg.TrackedExtensions(), organize.PruneOptions{
		DryRun: a.cfg.DryRun,
		Logger: a.log,
	})
	st, err := p.Prune(dir)
	return a.finish("clean", st, err, nil, start)
}

func (a *app) finish(op string, st organize.Stats, err error, bar *progressbar.ProgressBar, start time.Time) error {
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	printSummary(a.stderr, op, st, a.cfg.DryRun, time.Since(start))
	if n := st.Problems(); n > 0 {
		return fmt.Errorf("%w: %d files or directories skipped", errProblems, n)
	}
	return nil
}
