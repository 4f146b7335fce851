package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is a single call captured by Recorder.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// Recorder implements API by keeping every report in memory, it is meant
// for asserting on telemetry in tests.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) push(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.push("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push("count", id, []any{count})
}

// Reports returns a copy of all reports of the given kind, an empty kind returns everything.
func (r *Recorder) Reports(kind string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if kind == "" || report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Broken returns the ids of every ReportBroken call whose id contains `substr`.
func (r *Recorder) Broken(substr string) []string {
	var ids []string
	for _, report := range r.Reports("broken") {
		if strings.Contains(report.ID, substr) {
			ids = append(ids, report.ID)
		}
	}
	return ids
}

func (r *Recorder) String() string {
	var out strings.Builder
	for _, report := range r.Reports("") {
		out.WriteString(fmt.Sprintf("%s %s %v\n", report.Kind, report.ID, report.Params))
	}
	return out.String()
}
