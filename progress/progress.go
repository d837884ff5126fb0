package progress

import (
	"context"
	"sync"
	"time"
)

// Delta is a signed counter change
type Delta struct {
	Total       int
	Completed   int
	Failed      int
	Running     int
	Waiting     int
	Threads     int
	Escalations int
}

// Progress keeps job and thread counters of one process.  It is safe for
// concurrent use.
type Progress struct {
	ProcessID string
	Graph     string
	StartedAt time.Time

	TotalJobs     int
	CompletedJobs int
	FailedJobs    int
	RunningJobs   int
	// WaitingJobs counts jobs suspended on resource loads
	WaitingJobs int
	LiveThreads int
	Escalations int

	sync.Mutex
	onChange func(Progress)
}

// Update applies d; the onChange callback receives a copy outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()

	p.TotalJobs += d.Total
	p.CompletedJobs += d.Completed
	p.FailedJobs += d.Failed
	p.RunningJobs += d.Running
	p.WaitingJobs += d.Waiting
	p.LiveThreads += d.Threads
	p.Escalations += d.Escalations

	snapshot := p.copy()
	cb := p.onChange

	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

func (p *Progress) copy() Progress {
	return Progress{
		ProcessID:     p.ProcessID,
		Graph:         p.Graph,
		StartedAt:     p.StartedAt,
		TotalJobs:     p.TotalJobs,
		CompletedJobs: p.CompletedJobs,
		FailedJobs:    p.FailedJobs,
		RunningJobs:   p.RunningJobs,
		WaitingJobs:   p.WaitingJobs,
		LiveThreads:   p.LiveThreads,
		Escalations:   p.Escalations,
	}
}

// OnChange replaces the callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context
func WithNewTracker(ctx context.Context, processID, graph string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		ProcessID: processID,
		Graph:     graph,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext returns the tracker carried by ctx
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot returns a snapshot of the tracker carried by ctx
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx applies d to the tracker carried by ctx, if any
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
