// Package monitoring serves a running testbench over HTTP so that it can be
// inspected and steered while it simulates.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
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

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/axitb/scoreboard"
)

// Engine is the part of the simulation engine the monitor controls.
type Engine interface {
	sim.TimeTeller
	Pause()
	Continue()
}

// Component is a component that can be inspected and woken up.
type Component interface {
	sim.Named
	TickLater()
}

// Channel is a handshake channel whose occupancy is reported.
type Channel interface {
	Name() string
	Size() int
	Capacity() int
}

// Snapshotter exposes the expected traffic still pending.
type Snapshotter interface {
	Snapshot() (scoreboard.Snapshot, error)
}

// Stopper ends traffic generation.
type Stopper interface {
	Raise()
}

// Monitor turns a simulation into an HTTP server.
type Monitor struct {
	mu sync.Mutex

	engine     Engine
	freq       sim.Freq
	components []Component
	channels   []Channel
	scoreboard Snapshotter
	stopper    Stopper

	portNumber  int
	openBrowser bool
	listener    net.Listener
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{freq: 1 * sim.GHz}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
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

// WithBrowser makes StartServer open the server address in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterEngine registers the engine that runs the simulation and the
// clock cycles are counted with.
func (m *Monitor) RegisterEngine(e Engine, freq sim.Freq) {
	m.engine = e
	m.freq = freq
}

// RegisterComponent registers a component to be monitored.
func (m *Monitor) RegisterComponent(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, c)
}

// RegisterChannel registers a channel whose occupancy is reported.
func (m *Monitor) RegisterChannel(c Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels = append(m.channels, c)
}

// RegisterScoreboard registers the scoreboard.
func (m *Monitor) RegisterScoreboard(s Snapshotter) {
	m.scoreboard = s
}

// RegisterStopper registers the signal /api/stop raises.
func (m *Monitor) RegisterStopper(s Stopper) {
	m.stopper = s
}

// Handler returns the HTTP routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/stop", m.stop)
	r.HandleFunc("/api/tick/{name}", m.tick)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/channels", m.listChannels)
	r.HandleFunc("/api/scoreboard", m.listScoreboard)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer serves the monitor in the background and returns its
// address.
func (m *Monitor) StartServer() (string, error) {
	addr := ":0"
	if m.portNumber > 1000 {
		addr = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("monitor: %w", err)
	}
	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Handler())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Print(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("monitor: cannot open browser: %v", err)
		}
	}

	return url, nil
}

// StopServer closes the listener started by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Now   float64 `json:"now"`
	Cycle uint64  `json:"cycle"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	writeJSON(w, nowRsp{Now: float64(now), Cycle: m.freq.Cycle(now)})
}

func (m *Monitor) stop(w http.ResponseWriter, _ *http.Request) {
	if m.stopper == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	m.stopper.Raise()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}
	m.mu.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) tick(w http.ResponseWriter, r *http.Request) {
	comp := m.findComponentOr404(w, mux.Vars(r)["name"])
	if comp == nil {
		return
	}

	comp.TickLater()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	comp := m.findComponentOr404(w, mux.Vars(r)["name"])
	if comp == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(comp)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		log.Printf("monitor: %v", err)
	}
}

type channelRsp struct {
	Channel string `json:"channel"`
	Level   int    `json:"level"`
	Cap     int    `json:"cap"`
}

func (m *Monitor) listChannels(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := parseChannelParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	m.mu.Lock()
	rsp := make([]channelRsp, 0, len(m.channels))
	for _, c := range m.channels {
		rsp = append(rsp, channelRsp{c.Name(), c.Size(), c.Capacity()})
	}
	m.mu.Unlock()

	sortChannels(rsp, sortMethod)

	offset = min(offset, len(rsp))
	rsp = rsp[offset:]
	if limit > 0 && limit < len(rsp) {
		rsp = rsp[:limit]
	}

	writeJSON(w, rsp)
}

func parseChannelParams(
	r *http.Request,
) (sortMethod string, limit, offset int, err error) {
	sortMethod = r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, fmt.Errorf(
			"invalid sort method %q, allowed values are level and percent",
			sortMethod)
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return "", 0, 0, err
		}
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return "", 0, 0, err
		}
	}

	if limit < 0 || offset < 0 {
		return "", 0, 0, errors.New("limit and offset must be >= 0")
	}

	return sortMethod, limit, offset, nil
}

func percentOf(c channelRsp) float64 {
	if c.Cap == 0 {
		return 0
	}

	return float64(c.Level) / float64(c.Cap)
}

func sortChannels(chs []channelRsp, method string) {
	sort.SliceStable(chs, func(i, j int) bool {
		li, lj := chs[i].Level, chs[j].Level
		pi, pj := percentOf(chs[i]), percentOf(chs[j])

		if method == "level" {
			if li != lj {
				return li > lj
			}

			return pi > pj
		}

		if pi != pj {
			return pi > pj
		}

		return li > lj
	})
}

func (m *Monitor) listScoreboard(w http.ResponseWriter, _ *http.Request) {
	if m.scoreboard == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	snap, err := m.scoreboard.Snapshot()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	writeJSON(w, snap)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		httpError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		httpError(w, err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		httpError(w, err)
		return
	}

	writeJSON(w, resourceRsp{CPUPercent: cpuPercent, MemorySize: mem.RSS})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		httpError(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		httpError(w, err)
		return
	}

	writeJSON(w, prof)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) Component {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "Component not found")

	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		log.Printf("monitor: %v", err)
	}
}

func httpError(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "Error: %s", err)
}
