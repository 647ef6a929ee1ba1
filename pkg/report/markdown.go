package report

import (
	"bytes"
	_ "embed"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/japaniel/mythos/pkg/upload"
	"github.com/japaniel/mythos/pkg/validate"
)

//go:embed templates/upload_report.md.tmpl
var uploadReportTmpl string

var uploadReport = template.Must(template.New("upload").Funcs(template.FuncMap{
	"join": strings.Join,
	"cell": func(s string) string { return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s) },
}).Parse(uploadReportTmpl))

// UploadRow is one table row of the Markdown report.
type UploadRow struct {
	Name string
	upload.Tally
	Ready    string
	Verified string
}

type uploadView struct {
	GeneratedAt time.Time
	DryRun      bool
	Aborted     string
	Totals      upload.Tally
	Skipped     int
	Validation  *validate.Summary
	Mythologies []UploadRow
	Types       []UploadRow
	Samples     []upload.SampleCheck
	Failures    []upload.Failure
}

// RenderUploadReport renders the human-readable upload report. summary
// may be nil when validation results are unavailable.
func RenderUploadReport(rep *upload.Report, summary *validate.Summary, now time.Time) ([]byte, error) {
	v := uploadView{
		GeneratedAt: now,
		DryRun:      rep.DryRun,
		Aborted:     rep.Aborted,
		Totals:      rep.Tally,
		Skipped:     rep.Skipped,
		Validation:  summary,
		Failures:    rep.Failures,
	}
	verified := map[string]bool{}
	if rep.Verification != nil {
		v.Samples = rep.Verification.Samples
		for m, c := range rep.Verification.ByMythology {
			verified[string(m)] = c.OK
		}
		for _, s := range rep.Verification.Samples {
			verified[string(s.Mythology)] = verified[string(s.Mythology)] && s.OK
		}
	}
	for m, t := range rep.ByMythology {
		row := UploadRow{Name: string(m), Tally: *t, Ready: "-", Verified: "-"}
		if summary != nil {
			row.Ready = strconv.Itoa(summary.ByMythology[m].Ready)
		}
		if ok, checked := verified[string(m)]; checked {
			row.Verified = map[bool]string{true: "yes", false: "no"}[ok]
		}
		v.Mythologies = append(v.Mythologies, row)
	}
	for t, tally := range rep.ByType {
		v.Types = append(v.Types, UploadRow{Name: string(t), Tally: *tally})
	}
	sort.Slice(v.Mythologies, func(i, j int) bool { return v.Mythologies[i].Name < v.Mythologies[j].Name })
	sort.Slice(v.Types, func(i, j int) bool { return v.Types[i].Name < v.Types[j].Name })

	var buf bytes.Buffer
	if err := uploadReport.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteUploadReport renders the report to ALL_MYTHOLOGIES_UPLOAD_REPORT.md
// under outDir and returns its path.
func WriteUploadReport(outDir string, rep *upload.Report, summary *validate.Summary, now time.Time) (string, error) {
	data, err := RenderUploadReport(rep, summary, now)
	if err != nil {
		return "", err
	}
	p := filepath.Join(outDir, UploadReportFile)
	if err := writeFile(p, data); err != nil {
		return "", err
	}
	return p, nil
}
