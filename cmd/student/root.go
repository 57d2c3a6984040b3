package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeanpaul/studentmodel/internal/concept"
	"github.com/jeanpaul/studentmodel/internal/config"
	"github.com/jeanpaul/studentmodel/internal/logging"
	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/render"
	"github.com/jeanpaul/studentmodel/internal/store"
	"github.com/jeanpaul/studentmodel/pkg/version"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	stdout io.Writer
	stderr io.Writer

	file     string
	logLevel string
	output   string
	noColor  bool

	logger *zap.Logger
	store  *store.Store
	out    *render.Renderer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "student",
		Short:         "Track what a learner knows across tutoring sessions",
		Version:       fmt.Sprintf("%s (%s)", version.Version, version.Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.file, "file", "", "student model file (default from config, ~/student_model.json)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&a.output, "output", "o", "", "output format: text, json, yaml")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.initCmd(),
		a.infoCmd(),
		a.listCmd(),
		a.showCmd(),
		a.relatedCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.struggleCmd(),
		a.breakthroughCmd(),
		a.linkCmd(),
		a.unlinkCmd(),
		a.sessionEndCmd(),
		a.misconceptionCmd(),
		a.restoreCmd(),
		a.diffCmd(),
		a.doctorCmd(),
		a.exportCmd(),
		a.versionCmd(),
	)
	return root
}

// setup merges config with flags. Flags win.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.file != "" {
		cfg.DataFile = a.file
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.output != "" {
		cfg.Output = a.output
	}
	if a.noColor {
		cfg.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}

	a.logger, err = logging.NewWithWriter(cfg.LogLevel, a.stderr)
	if err != nil {
		return err
	}
	a.store = store.New(cfg.DataFile, store.WithLogger(a.logger))
	a.out = render.New(a.stdout, cfg.Output, cfg.Color)
	return nil
}

// load reads the document and tells the user when it came from the backup.
func (a *app) load() (*model.Document, error) {
	doc, report, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if report.Recovered {
		render.Warn(a.stderr, "%s could not be read (%v); using backup %s. The next save rewrites the primary.",
			a.store.Path(), report.PrimaryErr, a.store.BackupPath())
	}
	return doc, nil
}

// repo loads the document and wraps it in a repository.
func (a *app) repo() (*concept.Repository, error) {
	doc, err := a.load()
	if err != nil {
		return nil, err
	}
	return concept.New(doc), nil
}

// mutate loads, runs fn and saves once. fn reports whether anything
// changed; unchanged documents are not written.
func (a *app) mutate(fn func(*concept.Repository) (bool, error)) error {
	repo, err := a.repo()
	if err != nil {
		return err
	}
	changed, err := fn(repo)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return a.store.Save(repo.Document())
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.stdout, "student %s (%s)\n", version.Version, version.Commit)
			return nil
		},
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s: expected %d argument(s), got %d\nusage: %s", cmd.Name(), n, len(args), cmd.UseLine())
		}
		return nil
	}
}
