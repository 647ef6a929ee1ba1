package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/config"
	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/logging"
	"github.com/japaniel/mythos/pkg/report"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	root       string
	dataDir    string
	outDir     string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		now:    func() time.Time { return time.Now().UTC() },
	}
	cmd := &cobra.Command{
		Use:   "mythos",
		Short: "Extract, validate and upload the mythology corpus",
		Long: `mythos turns the HTML pages under <root>/mythos/ into typed JSON entity
records, validates the corpus for schema, cross-reference and document-store
compatibility, and uploads the ready records.

Configuration comes from MYTHOS_* environment variables, an optional YAML
file (--config) and flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &corpus.ConfigError{Op: c.Name(), Err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML configuration file")
	pf.StringVar(&a.root, "root", "", "corpus root containing mythos/ (or MYTHOS_ROOT)")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory of extracted JSON records (default data/extracted)")
	pf.StringVar(&a.outDir, "out", "", "directory for reports (default .)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newExtractCmd(a),
		newValidateCmd(a),
		newUploadCmd(a),
		newVerifyCmd(a),
		newIndexesCmd(a),
	)
	return cmd
}

// setup loads the configuration, applies the flags that were set and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = a.root
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("out") {
		cfg.OutDir = a.outDir
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

// track loads the migration tracker, runs fn as stage and saves the
// tracker whatever the outcome.
func (a *app) track(stage string, fn func(t *report.Tracker) error) error {
	t, err := report.LoadTracker(filepath.Join(a.cfg.OutDir, report.TrackerFile), a.now())
	if err != nil {
		return fmt.Errorf("load tracker: %w", err)
	}
	id := t.Begin(stage, a.now())
	a.log.Debug("stage started", zap.String("stage", stage), zap.String("runId", id))
	runErr := fn(t)
	t.End(stage, a.now(), runErr)
	if err := t.Save(); err != nil {
		a.log.Error("saving tracker failed", zap.Error(err))
		if runErr == nil {
			return fmt.Errorf("save tracker: %w", err)
		}
	}
	return runErr
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
