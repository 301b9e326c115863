package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const execInfoTable = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// execRecorder records how the program was executed into the exec_info
// table.
type execRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

func newExecRecorderWithWriter(writer *sqliteWriter) *execRecorder {
	e := &execRecorder{
		recorder: writer,
		entries:  []execInfo{},
	}

	e.recorder.CreateTable(execInfoTable, execInfo{})

	return e
}

// Start captures the start time, the command line, and the working
// directory.
func (e *execRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, execInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	e.entries = append(e.entries, execInfo{"Command", cmd})

	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}

	cwd := filepath.Dir(ex)
	e.entries = append(e.entries, execInfo{"Working Directory", cwd})
}

// End writes the captured entries together with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(execInfoTable, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(execInfoTable, execInfo{"End Time", endTime})

	e.entries = nil

	e.recorder.Flush()
}
