package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	parsedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kidbloom",
		Subsystem: "import",
		Name:      "parsed_rows_total",
		Help:      "Spreadsheet rows parsed, by collection and outcome (record or error).",
	}, []string{"collection", "outcome"})

	commits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kidbloom",
		Subsystem: "import",
		Name:      "commits_total",
		Help:      "Import commits, by collection, mode and result.",
	}, []string{"collection", "mode", "result"})

	committedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kidbloom",
		Subsystem: "import",
		Name:      "committed_records_total",
		Help:      "Records written to a collection by import commits.",
	}, []string{"collection"})

	commitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kidbloom",
		Subsystem: "import",
		Name:      "commit_duration_seconds",
		Help:      "Time spent in the store during an import commit.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection", "mode"})

	pendingImports = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kidbloom",
		Subsystem: "import",
		Name:      "pending_batches",
		Help:      "Parsed batches waiting for commit or cancel.",
	})

	completions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kidbloom",
		Subsystem: "rewards",
		Name:      "activity_completions_total",
		Help:      "Activities marked completed by users.",
	})
)

func init() {
	prometheus.MustRegister(parsedRows, commits, committedRecords, commitDuration, pendingImports, completions)
}

// RecordParse counts the outcome of one parsed sheet.
func RecordParse(collection string, records, errors int) {
	parsedRows.WithLabelValues(collection, "record").Add(float64(records))
	parsedRows.WithLabelValues(collection, "error").Add(float64(errors))
}

// RecordCommit counts one commit attempt. result is "ok", "rejected",
// "failed" or "incomplete".
func RecordCommit(collection, mode, result string, inserted int, elapsed time.Duration) {
	commits.WithLabelValues(collection, mode, result).Inc()
	if inserted > 0 {
		committedRecords.WithLabelValues(collection).Add(float64(inserted))
	}
	commitDuration.WithLabelValues(collection, mode).Observe(elapsed.Seconds())
}

// SetPendingImports reports how many batches are awaiting a decision.
func SetPendingImports(n int) {
	pendingImports.Set(float64(n))
}

// RecordCompletion counts one activity completion.
func RecordCompletion() {
	completions.Inc()
}
