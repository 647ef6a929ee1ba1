package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/report"
	"github.com/japaniel/mythos/pkg/validate"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the extracted corpus",
		Long: `Loads every record under the data dir, runs the per-record and corpus-wide
checks and writes validation-results.json. Content problems never fail the
command; they are reported per record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track(report.StageValidate, func(t *report.Tracker) error {
				_, res, err := a.loadAndValidate(cmd.Context())
				if err != nil {
					return err
				}
				p, err := report.WriteValidation(a.cfg.OutDir, a.cfg.ValidationPolicy(), res, a.now())
				if err != nil {
					return err
				}
				t.RecordValidation(res.Summary)
				a.printValidation(res.Summary)
				a.printf("wrote %s\n", p)
				return nil
			})
		},
	}
}

// loadAndValidate reads and validates the whole extracted corpus. Duplicate
// ids and cross-references are always judged across every mythology, also
// for commands filtered to one. Files that fail to parse are folded into
// the result as syntax failures.
func (a *app) loadAndValidate(ctx context.Context) ([]corpus.EntityRecord, *validate.Result, error) {
	records, failures, err := report.LoadCorpus(a.cfg.DataDir, "")
	if err != nil {
		return nil, nil, err
	}
	res, err := validate.New(a.cfg.ValidationPolicy(), a.log).Validate(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	if len(failures) > 0 {
		res.Add(failures...)
	}
	return records, res, nil
}

func (a *app) printValidation(s validate.Summary) {
	a.printf("%d records: %d ready, %d not ready\n", s.Total, s.Ready, s.NotReady)
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		a.printf("  %-22s %d\n", k, s.ByKind[corpus.IssueKind(k)])
	}
}
