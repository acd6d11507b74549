package datarecording

import (
	"os"
	"slices"
	"strings"
	"time"
)

// RunTable is the table written by a RunRecorder.
const RunTable = "fattree_runs"

const runTimeFormat = "2006-01-02 15:04:05.000000000"

// RunEntry is one property of a program run.
type RunEntry struct {
	Property string
	Value    string
}

// RunRecorder records the command line, the working directory, and the start
// and end time of the program.
type RunRecorder struct {
	recorder DataRecorder
	entries  []RunEntry
	now      func() time.Time
}

// NewRunRecorder creates a RunRecorder that writes to recorder.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	if !slices.Contains(recorder.ListTables(), RunTable) {
		recorder.CreateTable(RunTable, RunEntry{})
	}

	return &RunRecorder{
		recorder: recorder,
		now:      time.Now,
	}
}

// Start remembers the start of the run.
func (e *RunRecorder) Start() {
	e.entries = append(e.entries,
		RunEntry{"Start Time", e.now().Format(runTimeFormat)},
		RunEntry{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, RunEntry{"Working Directory", cwd})
	}
}

// End writes the run into the recorder along with the end time.
func (e *RunRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(RunTable, entry)
	}

	e.recorder.InsertData(RunTable,
		RunEntry{"End Time", e.now().Format(runTimeFormat)})

	e.entries = nil

	e.recorder.Flush()
}
