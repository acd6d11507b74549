package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/sarchlab/fattree/addressing"
	"github.com/sarchlab/fattree/hooking"
	"github.com/sarchlab/fattree/topology"
)

// A ProgressBar tracks how many of a known number of items are done.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished items.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// CreateProgressBar creates a new progress bar shown by the monitor.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the monitor.
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

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	rsp := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		rsp = append(rsp, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, rsp)
}

// BuildProgress is a hook that advances one bar per created link and another
// per link given an IPv4 address.
type BuildProgress struct {
	Links     *ProgressBar
	Addresses *ProgressBar
}

// NewBuildProgress creates the bars for a fat-tree with the given counts.
// Negative counts are taken as zero.
func (m *Monitor) NewBuildProgress(
	name string,
	numCore, numAggregator, numEdge int,
) *BuildProgress {
	c, a, e := max(numCore, 0), max(numAggregator, 0), max(numEdge, 0)
	numLinks := uint64(c*a + a*e)

	return &BuildProgress{
		Links:     m.CreateProgressBar(name+" links", numLinks),
		Addresses: m.CreateProgressBar(name+" addresses", numLinks),
	}
}

// Func advances the bars.
func (p *BuildProgress) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case topology.HookPosLinkCreated:
		p.Links.IncrementFinished(1)
	case topology.HookPosAddressAssigned:
		if ctx.Item.(topology.LinkAddress).Family == addressing.IPv4 {
			p.Addresses.IncrementFinished(1)
		}
	}
}
