package usecase

import (
	"fmt"
	"io"
)

// ProgressEvent describes one step of a job for observability:
// structured fields under serve mode, plain text for manual runs.
type ProgressEvent struct {
	Stage         string
	Index         int
	Total         int
	Percent       float64
	CommanderName string
	Rank          int
	Detail        string
}

// ProgressReporter receives job progress. Implementations must not
// block; the jobs call it synchronously between items.
type ProgressReporter interface {
	OnProgress(event ProgressEvent)
}

type nopReporter struct{}

func (nopReporter) OnProgress(ProgressEvent) {}

// NopReporter discards progress, used under serve mode where zap
// already covers observability.
func NopReporter() ProgressReporter { return nopReporter{} }

type writerReporter struct {
	w io.Writer
}

// NewWriterReporter renders plain-text progress lines, the output
// surface for manual CLI invocations.
func NewWriterReporter(w io.Writer) ProgressReporter {
	return &writerReporter{w: w}
}

func (r *writerReporter) OnProgress(event ProgressEvent) {
	switch {
	case event.CommanderName != "":
		fmt.Fprintf(r.w, "[%d/%d] (%.0f%%) #%d %s%s\n",
			event.Index, event.Total, event.Percent, event.Rank, event.CommanderName, suffix(event.Detail))
	case event.Total > 0:
		fmt.Fprintf(r.w, "[%d/%d] (%.0f%%) %s%s\n",
			event.Index, event.Total, event.Percent, event.Stage, suffix(event.Detail))
	default:
		fmt.Fprintf(r.w, "%s%s\n", event.Stage, suffix(event.Detail))
	}
}

func suffix(detail string) string {
	if detail == "" {
		return ""
	}
	return ": " + detail
}
