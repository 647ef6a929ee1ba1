package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/config"
	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/reading"
	"github.com/japaniel/mythos/pkg/report"
	"github.com/japaniel/mythos/pkg/store"
	"github.com/japaniel/mythos/pkg/store/firestore"
	"github.com/japaniel/mythos/pkg/store/sqlite"
	"github.com/japaniel/mythos/pkg/upload"
)

var errVerificationFailed = errors.New("verification failed")

type uploadFlags struct {
	dryRun    bool
	mythology string
	batchSize int
}

func newUploadCmd(a *app) *cobra.Command {
	var f uploadFlags
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload ready records to the document store",
		Long: `Validates the extracted corpus and writes every ready record to the
configured store in batches keyed by id. Unchanged documents are left alone,
so running upload twice is a no-op. Writes ALL_MYTHOLOGIES_UPLOAD_REPORT.md
and firestore.indexes.json even when the run fails part way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.upload(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.dryRun, "dry-run", false, "plan the upload without writing")
	fl.StringVar(&f.mythology, "mythology", "", "upload one mythology")
	fl.IntVar(&f.batchSize, "batch-size", 0, "records per commit (default from config)")
	return cmd
}

func (a *app) upload(ctx context.Context, f uploadFlags) error {
	opts := a.cfg.UploadOptions()
	if f.batchSize > 0 {
		if f.batchSize > 500 {
			return corpus.NewConfigError("upload", "batch size must be at most 500, got %d", f.batchSize)
		}
		opts.BatchSize = f.batchSize
	}
	opts.DryRun = f.dryRun
	opts.Mythology = corpus.Mythology(f.mythology)
	opts.Logger = a.log
	opts.Readings = a.readings(opts.Mythology)

	var st store.Store
	if !f.dryRun {
		var err error
		if st, err = a.openStore(ctx); err != nil {
			return err
		}
		defer st.Close()
	}

	return a.track(report.StageUpload, func(t *report.Tracker) error {
		records, res, err := a.loadAndValidate(ctx)
		if err != nil {
			return err
		}
		rep, uerr := upload.New(st, opts).Upload(ctx, records, res.Verdicts)
		if rep == nil {
			return uerr
		}
		t.RecordUpload(rep)

		mdPath, err := report.WriteUploadReport(a.cfg.OutDir, rep, &res.Summary, a.now())
		if err != nil {
			return errors.Join(uerr, err)
		}
		idxPath, err := report.WriteIndexes(a.cfg.OutDir, a.cfg.Store.Collection)
		if err != nil {
			return errors.Join(uerr, err)
		}

		mode := "uploaded"
		if rep.DryRun {
			mode = "would upload"
		}
		a.printf("%s %d, updated %d, unchanged %d, errors %d, skipped %d (not ready)\n",
			mode, rep.Uploaded, rep.Updated, rep.Unchanged, rep.Errors, rep.Skipped)
		if rep.Verification != nil {
			a.printVerification(rep.Verification)
		}
		a.printf("wrote %s and %s\n", mdPath, idxPath)
		return uerr
	})
}

func newVerifyCmd(a *app) *cobra.Command {
	var myth string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the store against the validated corpus",
		Long: `Counts the stored documents per mythology and per type and fetches one
sample per mythology, comparing every string byte for byte. Exits 1 when a
check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			return a.track(report.StageVerify, func(t *report.Tracker) error {
				records, res, err := a.loadAndValidate(ctx)
				if err != nil {
					return err
				}
				opts := a.cfg.UploadOptions()
				opts.Mythology = corpus.Mythology(myth)
				opts.Logger = a.log
				opts.Readings = a.readings(opts.Mythology)
				v, err := upload.New(st, opts).Verify(ctx, records, res.Verdicts)
				if err != nil {
					return err
				}
				t.RecordVerification(v)
				a.printVerification(v)
				if !v.OK {
					return errVerificationFailed
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&myth, "mythology", "", "verify one mythology")
	return cmd
}

func newIndexesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Write firestore.indexes.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.WriteIndexes(a.cfg.OutDir, a.cfg.Store.Collection)
			if err != nil {
				return err
			}
			a.printf("wrote %s\n", p)
			return nil
		},
	}
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if err := a.cfg.ValidateStore(); err != nil {
		return nil, err
	}
	switch a.cfg.Store.Backend {
	case config.BackendFirestore:
		p := firestore.NewProvider(a.cfg.FirestoreConfig())
		if _, err := p.Client(ctx); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("connect to firestore: %w", err)
		}
		a.log.Info("using firestore", zap.String("project", p.ProjectID()), zap.String("collection", a.cfg.Store.Collection))
		return firestore.NewStore(p, a.cfg.Store.Collection), nil
	default:
		st, err := sqlite.Open(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.log.Info("using sqlite", zap.String("path", a.cfg.Store.SQLitePath))
		return st, nil
	}
}

// readings returns the shared Japanese analyzer when the run can touch
// Japanese records, or nil.
func (a *app) readings(myth corpus.Mythology) *reading.Analyzer {
	if myth != "" && myth != "japanese" {
		return nil
	}
	r, err := reading.Shared()
	if err != nil {
		a.log.Warn("japanese readings unavailable", zap.Error(err))
		return nil
	}
	return r
}

func (a *app) printVerification(v *upload.Verification) {
	status := "ok"
	if !v.OK {
		status = "FAILED"
	}
	a.printf("verification %s\n", status)
	for _, s := range v.Samples {
		switch {
		case s.Error != "":
			a.printf("  sample %s/%s: error: %s\n", s.Mythology, s.ID, s.Error)
		case !s.OK:
			a.printf("  sample %s/%s: mismatched %v\n", s.Mythology, s.ID, s.Mismatches)
		}
	}
	myths := make([]string, 0, len(v.ByMythology))
	for m := range v.ByMythology {
		myths = append(myths, string(m))
	}
	sort.Strings(myths)
	for _, m := range myths {
		if c := v.ByMythology[corpus.Mythology(m)]; !c.OK {
			a.printf("  %s: expected %d documents, found %d\n", m, c.Expected, c.Actual)
		}
	}
}
