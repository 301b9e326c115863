// Package monitoring turns a running simulation into a web server, so that
// the state of the kernel, its processes, signals, and synchronization
// primitives can be inspected and controlled from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/hdlab/svsim/monitoring/web"
	"github.com/hdlab/svsim/sim"
)

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation.
type Monitor struct {
	kernel     *sim.Kernel
	signals    []*sim.Signal
	semaphores []*sim.Semaphore
	mailboxes  []*sim.Mailbox
	events     []*sim.NamedEvent
	buffers    []sim.Buffer

	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the monitoring page in the default
// browser when the server starts.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterKernel registers the kernel that drives the simulation.
func (m *Monitor) RegisterKernel(k *sim.Kernel) {
	m.kernel = k
}

// RegisterSignal registers a signal to be monitored.
func (m *Monitor) RegisterSignal(s *sim.Signal) {
	m.signals = append(m.signals, s)
}

// RegisterSemaphore registers a semaphore to be monitored.
func (m *Monitor) RegisterSemaphore(s *sim.Semaphore) {
	m.semaphores = append(m.semaphores, s)
}

// RegisterMailbox registers a mailbox to be monitored.
func (m *Monitor) RegisterMailbox(mb *sim.Mailbox) {
	m.mailboxes = append(m.mailboxes, mb)
}

// RegisterEvent registers a named event to be monitored.
func (m *Monitor) RegisterEvent(e *sim.NamedEvent) {
	m.events = append(m.events, e)
}

// RegisterBuffer registers a buffer to be monitored.
func (m *Monitor) RegisterBuffer(b sim.Buffer) {
	m.buffers = append(m.buffers, b)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/pause", m.pauseKernel)
	r.HandleFunc("/api/continue", m.continueKernel)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/processes", m.listProcesses)
	r.HandleFunc("/api/process/{name}", m.listProcessDetails)
	r.HandleFunc("/api/signals", m.listSignals)
	r.HandleFunc("/api/primitives", m.listPrimitives)
	r.HandleFunc("/api/buffers", m.listBuffers)
	r.HandleFunc("/api/deadlock", m.reportDeadlock)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	if m.openBrowser {
		// Best effort; a headless run has no browser to open.
		_ = browser.OpenURL(url)
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseKernel(w http.ResponseWriter, _ *http.Request) {
	m.kernel.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueKernel(w http.ResponseWriter, _ *http.Request) {
	m.kernel.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.kernel.CurrentTime())
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.kernel.Run()
		if err != nil {
			panic(err)
		}
	}()
}

type processRsp struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Waiting string `json:"waiting,omitempty"`
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	procs := m.kernel.Processes()

	rsp := make([]processRsp, 0, len(procs))
	for _, p := range procs {
		rsp = append(rsp, processRsp{
			ID:      p.ID(),
			Name:    p.Name(),
			State:   p.State().String(),
			Waiting: p.WaitingOn(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listProcessDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	proc := m.findProcessOr404(w, name)
	if proc == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(proc)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findProcessOr404(
	w http.ResponseWriter,
	name string,
) *sim.Process {
	for _, p := range m.kernel.Processes() {
		if p.Name() == name {
			return p
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Process not found"))
	dieOnErr(err)

	return nil
}

type signalRsp struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Value string `json:"value"`
}

func (m *Monitor) listSignals(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]signalRsp, 0, len(m.signals))
	for _, s := range m.signals {
		rsp = append(rsp, signalRsp{
			Name:  s.Name(),
			Width: s.Width(),
			Value: s.Value().String(),
		})
	}

	writeJSON(w, rsp)
}

type semaphoreRsp struct {
	Name      string `json:"name"`
	Available int    `json:"available"`
	Waiters   int    `json:"waiters"`
}

type mailboxRsp struct {
	Name     string `json:"name"`
	Num      int    `json:"num"`
	Capacity int    `json:"capacity"`
}

type eventRsp struct {
	Name      string `json:"name"`
	Triggered bool   `json:"triggered"`
}

type primitivesRsp struct {
	Semaphores []semaphoreRsp `json:"semaphores"`
	Mailboxes  []mailboxRsp   `json:"mailboxes"`
	Events     []eventRsp     `json:"events"`
}

func (m *Monitor) listPrimitives(w http.ResponseWriter, _ *http.Request) {
	rsp := primitivesRsp{
		Semaphores: []semaphoreRsp{},
		Mailboxes:  []mailboxRsp{},
		Events:     []eventRsp{},
	}

	for _, s := range m.semaphores {
		rsp.Semaphores = append(rsp.Semaphores, semaphoreRsp{
			Name:      s.Name(),
			Available: s.Available(),
			Waiters:   s.NumWaiters(),
		})
	}

	for _, mb := range m.mailboxes {
		rsp.Mailboxes = append(rsp.Mailboxes, mailboxRsp{
			Name:     mb.Name(),
			Num:      mb.Num(),
			Capacity: mb.Capacity(),
		})
	}

	for _, e := range m.events {
		rsp.Events = append(rsp.Events, eventRsp{
			Name:      e.Name(),
			Triggered: e.Triggered(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listBuffers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := buffersParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	sorted := m.sortAndSelectBuffers(limit, offset)

	fmt.Fprint(w, "[")
	for i, b := range sorted {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "{\"buffer\":\"%s\",\"level\":%d,\"cap\":%d}",
			b.Name(), b.Size(), b.Capacity())
	}
	fmt.Fprint(w, "]")
}

func buffersParseParams(r *http.Request) (limit, offset int, err error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "0"
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil {
		return 0, 0, err
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}
	offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return limit, 0, err
	}

	return limit, offset, nil
}

func (m *Monitor) sortAndSelectBuffers(limit, offset int) []sim.Buffer {
	sorted := make([]sim.Buffer, len(m.buffers))
	copy(sorted, m.buffers)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Size() > sorted[j].Size()
	})

	if offset > len(sorted) {
		offset = len(sorted)
	}
	sorted = sorted[offset:]

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}

func (m *Monitor) reportDeadlock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.kernel.Deadlock())
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
