// Package monitoring serves a read-only view of built fat-trees over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/id"
	"github.com/sarchlab/fattree/monitoring/web"
	"github.com/sarchlab/fattree/network"
	"github.com/sarchlab/fattree/topology"
)

// Monitor turns a set of topologies into a web server that can be inspected
// while the process runs.
type Monitor struct {
	portNumber      int
	logger          *zap.Logger
	openBrowser     bool
	idGen           id.IDGenerator
	profileDuration time.Duration

	topologiesLock sync.RWMutex
	topologies     []*topology.Topology

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		logger:          zap.NewNop(),
		idGen:           id.NewParallelIDGenerator(),
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port number not allowed, using a random port",
			zap.Int("port", portNumber))

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *zap.Logger) *Monitor {
	m.logger = logger
	return m
}

// WithBrowser makes StartServer open the dashboard in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterTopology adds a topology to be served. The first registered
// topology is the one used when a request does not name one.
func (m *Monitor) RegisterTopology(t *topology.Topology) {
	m.topologiesLock.Lock()
	defer m.topologiesLock.Unlock()

	m.topologies = append(m.topologies, t)
}

// Router returns the handler of all the monitor routes.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Methods(http.MethodGet).Subrouter()
	api.HandleFunc("/topologies", m.listTopologies)
	api.HandleFunc("/topology", m.describeTopology)
	api.HandleFunc("/nodes/{tier}", m.listNodes)
	api.HandleFunc("/edge/{aggregator}", m.listEdgeNodes)
	api.HandleFunc("/node/{name}", m.nodeDetails)
	api.HandleFunc("/field/{json}", m.nodeFieldValue)
	api.HandleFunc("/device/{relation}/{i}/{j}", m.deviceDetails)
	api.HandleFunc("/address/{relation}/{i}/{j}", m.addressDetails)
	api.HandleFunc("/progress", m.listProgressBars)
	api.HandleFunc("/resource", m.listResources)
	api.HandleFunc("/profile", m.collectProfile)

	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the address the
// server listens on.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	m.logger.Info("monitoring topologies", zap.String("url", url))

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", zap.Error(err))
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	return url, nil
}

// Shutdown stops a server started with StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) findTopologyOr404(
	w http.ResponseWriter,
	r *http.Request,
) *topology.Topology {
	m.topologiesLock.RLock()
	defer m.topologiesLock.RUnlock()

	name := r.URL.Query().Get("topology")

	for _, t := range m.topologies {
		if name == "" || t.Name() == name {
			return t
		}
	}

	httpError(w, http.StatusNotFound, "topology not found")

	return nil
}

func (m *Monitor) listTopologies(w http.ResponseWriter, _ *http.Request) {
	m.topologiesLock.RLock()
	names := make([]string, 0, len(m.topologies))
	for _, t := range m.topologies {
		names = append(names, t.Name())
	}
	m.topologiesLock.RUnlock()

	m.writeJSON(w, names)
}

type linkRsp struct {
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	Upper       int    `json:"upper"`
	Lower       int    `json:"lower"`
	UpperDevice string `json:"upper_device"`
	LowerDevice string `json:"lower_device"`
}

type topologyRsp struct {
	Name         string    `json:"name"`
	Core         int       `json:"core"`
	Aggregator   int       `json:"aggregator"`
	Edge         int       `json:"edge"`
	Nodes        int       `json:"nodes"`
	IPv4Assigned bool      `json:"ipv4_assigned"`
	IPv6Assigned bool      `json:"ipv6_assigned"`
	Links        []linkRsp `json:"links"`
}

func (m *Monitor) describeTopology(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	rsp := topologyRsp{
		Name:         t.Name(),
		Core:         t.Count(topology.Core),
		Aggregator:   t.Count(topology.Aggregator),
		Edge:         t.Count(topology.Edge),
		Nodes:        t.NumNodes(),
		IPv4Assigned: t.IsAssigned(addressing.IPv4),
		IPv6Assigned: t.IsAssigned(addressing.IPv6),
		Links:        make([]linkRsp, 0, t.NumLinks()),
	}

	for _, l := range t.Links() {
		rsp.Links = append(rsp.Links, linkRsp{
			Index:       l.Index,
			Kind:        l.Kind.String(),
			Upper:       l.Upper,
			Lower:       l.Lower,
			UpperDevice: l.UpperDevice.Name(),
			LowerDevice: l.LowerDevice.Name(),
		})
	}

	m.writeJSON(w, rsp)
}

type nodeRsp struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Stack   string   `json:"stack,omitempty"`
	Devices []string `json:"devices"`
}

func makeNodeRsp(n *network.Node) nodeRsp {
	rsp := nodeRsp{
		ID:      n.ID(),
		Name:    n.Name(),
		Devices: make([]string, 0, n.NumDevices()),
	}

	if st, ok := n.Stack(); ok {
		rsp.Stack = st.Name
	}

	for _, d := range n.Devices() {
		rsp.Devices = append(rsp.Devices, d.Name())
	}

	return rsp
}

func makeNodeRsps(nodes []*network.Node) []nodeRsp {
	rsp := make([]nodeRsp, 0, len(nodes))
	for _, n := range nodes {
		rsp = append(rsp, makeNodeRsp(n))
	}

	return rsp
}

func (m *Monitor) listNodes(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	tier, err := topology.ParseTier(mux.Vars(r)["tier"])
	if err != nil {
		writeTopologyError(w, err)
		return
	}

	m.writeJSON(w, makeNodeRsps(t.Nodes(tier)))
}

func (m *Monitor) listEdgeNodes(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	aggregator, err := strconv.Atoi(mux.Vars(r)["aggregator"])
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := t.EdgeNodes(aggregator)
	if err != nil {
		writeTopologyError(w, err)
		return
	}

	m.writeJSON(w, makeNodeRsps(nodes))
}

func (m *Monitor) findNodeOr404(
	w http.ResponseWriter,
	t *topology.Topology,
	name string,
) *network.Node {
	for _, tier := range []topology.Tier{
		topology.Core, topology.Aggregator, topology.Edge,
	} {
		for _, n := range t.Nodes(tier) {
			if n.Name() == name {
				return n
			}
		}
	}

	httpError(w, http.StatusNotFound, "node not found")

	return nil
}

func (m *Monitor) nodeDetails(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	node := m.findNodeOr404(w, t, mux.Vars(r)["name"])
	if node == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(node)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		m.logger.Error("serializing node", zap.Error(err))
	}
}

type fieldReq struct {
	NodeName  string `json:"node_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) nodeFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	node := m.findNodeOr404(w, t, req.NodeName)
	if node == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(node)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := serializer.Serialize(w); err != nil {
		m.logger.Error("serializing field", zap.Error(err))
	}
}

func parsePosition(
	w http.ResponseWriter,
	r *http.Request,
) (rel topology.Relation, i, j int, ok bool) {
	vars := mux.Vars(r)

	rel, err := topology.ParseRelation(vars["relation"])
	if err != nil {
		writeTopologyError(w, err)
		return rel, 0, 0, false
	}

	i, errI := strconv.Atoi(vars["i"])
	j, errJ := strconv.Atoi(vars["j"])

	if errI != nil || errJ != nil {
		httpError(w, http.StatusBadRequest, "indices must be integers")
		return rel, 0, 0, false
	}

	return rel, i, j, true
}

type deviceRsp struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Node      string   `json:"node"`
	Peer      string   `json:"peer"`
	DataRate  string   `json:"data_rate"`
	Delay     float64  `json:"delay"`
	MTU       int      `json:"mtu"`
	Addresses []string `json:"addresses"`
}

func (m *Monitor) deviceDetails(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	rel, i, j, ok := parsePosition(w, r)
	if !ok {
		return
	}

	d, err := t.Device(rel, i, j)
	if err != nil {
		writeTopologyError(w, err)
		return
	}

	rsp := deviceRsp{
		ID:        d.ID(),
		Name:      d.Name(),
		Node:      d.Node().Name(),
		DataRate:  d.DataRate().String(),
		MTU:       d.MTU(),
		Addresses: []string{},
	}

	if peer := d.Peer(); peer != nil {
		rsp.Peer = peer.Name()
	}

	if ch := d.Channel(); ch != nil {
		rsp.Delay = ch.Delay()
	}

	for _, a := range d.Addresses() {
		rsp.Addresses = append(rsp.Addresses, a.String())
	}

	m.writeJSON(w, rsp)
}

type addressRsp struct {
	Family  string `json:"family"`
	Device  string `json:"device"`
	Address string `json:"address"`
	Subnet  string `json:"subnet"`
}

func (m *Monitor) addressDetails(w http.ResponseWriter, r *http.Request) {
	t := m.findTopologyOr404(w, r)
	if t == nil {
		return
	}

	rel, i, j, ok := parsePosition(w, r)
	if !ok {
		return
	}

	family := addressing.IPv4

	switch strings.ToLower(r.URL.Query().Get("family")) {
	case "", "ipv4":
	case "ipv6":
		family = addressing.IPv6
	default:
		httpError(w, http.StatusBadRequest, "family must be ipv4 or ipv6")
		return
	}

	itf, err := t.Interface(family, rel, i, j)
	if err != nil {
		writeTopologyError(w, err)
		return
	}

	m.writeJSON(w, addressRsp{
		Family:  family.String(),
		Device:  itf.Device.Name(),
		Address: itf.Addr().String(),
		Subnet:  itf.Subnet().String(),
	})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.internalError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.internalError(w, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.internalError(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.internalError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		m.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(bytes); err != nil {
		m.logger.Warn("writing response", zap.Error(err))
	}
}

func (m *Monitor) internalError(w http.ResponseWriter, err error) {
	m.logger.Error("monitor request failed", zap.Error(err))
	httpError(w, http.StatusInternalServerError, err.Error())
}

// writeTopologyError maps the errors of the topology accessors to status
// codes.
func writeTopologyError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, topology.ErrOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, topology.ErrInvalidTier),
		errors.Is(err, topology.ErrInvalidRelation):
		status = http.StatusBadRequest
	case errors.Is(err, topology.ErrNotAssigned),
		errors.Is(err, topology.ErrNotBuilt):
		status = http.StatusConflict
	}

	httpError(w, status, err.Error())
}

func httpError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}
