package tracing

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/hdlab/svsim/sim"
)

// CSVTraceWriter is a tracer that stores completed tasks in a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	mu         sync.Mutex
	timeTeller sim.TimeTeller
	inflight   map[string]Task
	completed  []Task
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. An empty path picks a
// unique name.
func NewCSVTraceWriter(timeTeller sim.TimeTeller, path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		timeTeller: timeTeller,
		inflight:   make(map[string]Task),
		bufferSize: 1000,
	}
}

// Init creates the tracing CSV file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "svsim_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, ParentID, Kind, What, Where, Start, End\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// StartTask records the task start time.
func (t *CSVTraceWriter) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflight[task.ID] = task
}

// StepTask does nothing.
func (t *CSVTraceWriter) StepTask(_ Task) {
	// Do nothing.
}

// EndTask writes the completed task out.
func (t *CSVTraceWriter) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	original.EndTime = t.timeTeller.CurrentTime()
	delete(t.inflight, task.ID)

	t.completed = append(t.completed, original)
	if len(t.completed) >= t.bufferSize {
		t.flushLocked()
	}
}

// Flush writes all the buffered tasks to the CSV file.
func (t *CSVTraceWriter) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushLocked()
}

func (t *CSVTraceWriter) flushLocked() {
	for _, task := range t.completed {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %d, %d\n",
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
		)
	}

	t.completed = nil
}
