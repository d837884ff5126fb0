package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/model/graph"
)

var errCorruptItem = errors.New("corrupt item")

// demo is an ingestion graph: extract fans items out to parallel transform
// threads sharing a lazily loaded catalog, then load reports the total.
// Every seventh item is corrupt and quarantined by its thread handler.
type demo struct {
	mux         sync.Mutex
	loaded      map[string]int
	transformed map[string]int
	quarantined map[string]int
}

func newDemo() *demo {
	return &demo{loaded: map[string]int{}, transformed: map[string]int{}, quarantined: map[string]int{}}
}

func (d *demo) graph() *model.Graph {
	transform := graph.NewFlow("transform", "transform", graph.StrategyParallel)
	transform.Escalations = graph.Escalations{{Kind: graph.FailureExecution, Is: errCorruptItem, Handler: "quarantine"}}
	return model.NewGraph("ingest").
		AddResource(&graph.Resource{
			Name:  "catalog",
			Scope: graph.ScopeProcess,
			CreateAsync: func(ctx context.Context, ready func(interface{}, error)) {
				go func() {
					time.Sleep(20 * time.Millisecond)
					ready(map[string]int{"multiplier": 3}, nil)
				}()
			},
		}).
		AddResource(&graph.Resource{
			Name:   "buffer",
			Scope:  graph.ScopeThread,
			Pooled: true,
			Create: func(ctx context.Context) (interface{}, error) {
				return make([]int, 0, 16), nil
			},
		}).
		AddJob(
			graph.NewJob("extract", d.extract).WithTeam("elastic").WithResources("catalog").
				WithFlow(transform).WithNext("load").WithPre(graph.NewLogDuty("extract")),
			graph.NewJob("transform", d.transform).WithTeam("elastic").WithResources("catalog", "buffer"),
			graph.NewJob("quarantine", d.quarantine),
			graph.NewJob("load", d.load).WithPost(graph.NewLogDuty("load")),
		)
}

func (d *demo) extract(ctx context.Context, job graph.JobContext) error {
	items, ok := job.Parameter().(int)
	if !ok {
		return fmt.Errorf("expected item count, got %T", job.Parameter())
	}
	futures := make([]graph.Future, 0, items)
	for i := 0; i < items; i++ {
		future, err := job.Instigate("transform", i)
		if err != nil {
			return err
		}
		futures = append(futures, future)
	}
	for _, future := range futures {
		select {
		case <-future.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	job.SetOutput(items)
	return nil
}

func (d *demo) transform(ctx context.Context, job graph.JobContext) error {
	item := job.Parameter().(int)
	if item%7 == 6 {
		return fmt.Errorf("item %v: %w", item, errCorruptItem)
	}
	catalog, err := job.Resource("catalog")
	if err != nil {
		return err
	}
	d.mux.Lock()
	d.transformed[job.ProcessID()] += item * catalog.(map[string]int)["multiplier"]
	d.mux.Unlock()
	return nil
}

func (d *demo) quarantine(ctx context.Context, job graph.JobContext) error {
	d.mux.Lock()
	d.quarantined[job.ProcessID()]++
	d.mux.Unlock()
	return nil
}

func (d *demo) load(ctx context.Context, job graph.JobContext) error {
	items, ok := job.Parameter().(int)
	if !ok {
		return fmt.Errorf("expected item count, got %T", job.Parameter())
	}
	d.mux.Lock()
	d.loaded[job.ProcessID()] = items
	d.mux.Unlock()
	return nil
}

type summary struct {
	Items       int `json:"items"`
	Total       int `json:"total"`
	Quarantined int `json:"quarantined"`
}

func (d *demo) summary(processID string) *summary {
	d.mux.Lock()
	defer d.mux.Unlock()
	return &summary{Items: d.loaded[processID], Total: d.transformed[processID], Quarantined: d.quarantined[processID]}
}
