package main

import (
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/extract"
	"github.com/japaniel/mythos/pkg/pipeline"
	"github.com/japaniel/mythos/pkg/reading"
	"github.com/japaniel/mythos/pkg/report"
	"github.com/japaniel/mythos/pkg/walker"
)

type extractFlags struct {
	mythology string
	all       bool
	typ       string
	file      string
	workers   int
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract (--mythology <name> | --all)",
		Short: "Extract entity records from the HTML corpus",
		Long: `Walks <root>/mythos/, extracts one record per page and writes
<data-dir>/<mythology>/<id>.json plus an _extraction_summary.json per
mythology. Pages that fail become extraction-failed stubs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.mythology, "mythology", "", "extract one mythology")
	fl.BoolVar(&f.all, "all", false, "extract every mythology")
	fl.StringVar(&f.typ, "type", "", "restrict to one entity type")
	fl.StringVar(&f.file, "file", "", "extract a single page (path relative to the root)")
	fl.IntVar(&f.workers, "workers", 0, "parallel extraction workers (default from config)")
	return cmd
}

func (a *app) extract(cmd *cobra.Command, f extractFlags) error {
	if f.file == "" && (f.mythology == "") == !f.all {
		return corpus.NewConfigError("extract", "exactly one of --mythology or --all is required")
	}
	if f.mythology != "" && !corpus.Mythology(f.mythology).Valid() {
		return corpus.NewConfigError("extract", "unknown mythology %q", f.mythology)
	}
	if f.typ != "" && !corpus.EntityType(f.typ).Valid() {
		return corpus.NewConfigError("extract", "unknown entity type %q", f.typ)
	}
	if err := a.cfg.RequireRoot(); err != nil {
		return err
	}
	workers := a.cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	myth := corpus.Mythology(f.mythology)
	w, err := walker.New(a.cfg.Root, walker.Options{
		Mythology:  myth,
		Type:       corpus.EntityType(f.typ),
		SingleFile: f.file,
	}, a.log)
	if err != nil {
		return err
	}
	opts, err := a.cfg.ExtractOptions()
	if err != nil {
		return err
	}
	opts.Logger = a.log
	if myth == "" || myth == "japanese" {
		if opts.Readings, err = reading.Shared(); err != nil {
			a.log.Warn("japanese readings unavailable", zap.Error(err))
		}
	}
	ex, err := extract.New(opts)
	if err != nil {
		return err
	}

	return a.track(report.StageExtract, func(t *report.Tracker) error {
		res, err := pipeline.NewRunner(workers, a.log).Run(cmd.Context(), w, ex)
		if err != nil {
			return err
		}
		sums, err := report.WriteExtracted(a.cfg.DataDir, ex.Version(), res.Records, res.Skipped, a.now())
		if err != nil {
			return err
		}
		t.RecordExtraction(res.Records)

		names := make([]string, 0, len(sums))
		for m := range sums {
			names = append(names, string(m))
		}
		sort.Strings(names)
		for _, m := range names {
			s := sums[corpus.Mythology(m)]
			a.printf("%-12s %4d records  %4d published  %4d draft  %3d failed  %3d skipped  avg %.1f\n",
				m, s.Total, s.Published, s.Draft, s.Failed, s.Skipped, s.AverageScore)
		}
		a.printf("extracted %d records (%d failed, %d skipped) with extractor %s into %s\n",
			len(res.Records), res.Failed, len(res.Skipped), ex.Version(), a.cfg.DataDir)
		return nil
	})
}
