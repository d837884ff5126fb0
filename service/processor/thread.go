package processor

import (
	"fmt"

	"github.com/viant/jobflow/internal/clock"
	"github.com/viant/jobflow/internal/idgen"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/progress"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/resource"
)

// newThread registers a live thread; joined threads add a join obligation to
// parent.  Caller holds the process lock.
func (s *Service) newThread(process *execution.Process, parent *execution.Thread, joined bool, escalations graph.Escalations) *execution.Thread {
	thread := execution.NewThread(idgen.New(), process, parent, joined, escalations)
	if parent != nil {
		thread.Depth = parent.Depth
	}
	process.AddThread(thread)
	if joined && parent != nil {
		parent.Children++
	}
	process.Progress.Update(progress.Delta{Threads: 1})
	s.metrics.ThreadStarted()
	return thread
}

// newJob creates a job activation holding its own job scope
func (s *Service) newJob(process *execution.Process, definition *graph.Job, parameter interface{}, depth int) *execution.Job {
	job := execution.NewJob(idgen.New(), definition, parameter)
	job.Depth = depth
	job.Scope = resource.NewScope(graph.ScopeJob, job.ID(), process.Locker())
	job.Scope.Retain()
	job.SetSpawner(func(flow *graph.Flow, parameter interface{}) (*execution.Future, error) {
		var ret *execution.Future
		var err error
		process.Mutate(func() []func() {
			switch {
			case job.State >= execution.JobStateCompleting:
				err = fmt.Errorf("%v: %w", job.Name(), execution.ErrJobFinished)
				return nil
			case process.Failed():
				err = fmt.Errorf("%w: %v", execution.ErrDiscarded, flow.Name)
				return nil
			}
			ret = execution.NewFuture()
			job.Spawned++
			actions, _ := s.instigate(job, flow, parameter, ret)
			return actions
		})
		return ret, err
	})
	return job
}

// advance starts the next queued job of an idle thread, or retires the
// thread once its flow is exhausted and every joined child finished.  Caller
// holds the process lock.
func (s *Service) advance(thread *execution.Thread) []func() {
	if thread.Retired || thread.Active != nil {
		return nil
	}
	if job := thread.Next(); job != nil {
		return []func(){func() { s.start(job) }}
	}
	if thread.Done() {
		return s.retire(thread)
	}
	return nil
}

// retire closes the thread scope; the thread stays live until its
// resources are cleaned up.  Caller holds the process lock.
func (s *Service) retire(thread *execution.Thread) []func() {
	thread.Retired = true
	objects, _ := thread.Scope.Release()
	return []func(){func() { s.cleanupThread(thread, objects) }}
}

func (s *Service) cleanupThread(thread *execution.Thread, objects []*resource.ManagedObject) {
	process := thread.Process
	errs := s.resources.Cleanup(process.Context, objects)
	process.Mutate(func() []func() {
		var actions []func()
		for _, err := range errs {
			actions = append(actions, s.escalateCleanup(process, thread, nil, thread.Depth, err)...)
		}
		if parent := thread.Parent; thread.Joined && parent != nil {
			parent.Children--
			actions = append(actions, s.advance(parent)...)
		}
		last, processObjects := process.RetireThread(thread)
		process.Progress.Update(progress.Delta{Threads: -1})
		s.metrics.ThreadFinished()
		thread.Future.Resolve(thread.Err())
		if last {
			actions = append(actions, func() { s.finishProcess(process, processObjects) })
		}
		return actions
	})
}

// finishProcess cleans the process scope up and resolves the outcome.
// Process scope cleanup failures cannot be handled by a job anymore; they are
// reported to the default handler and listed on the outcome.
func (s *Service) finishProcess(process *execution.Process, objects []*resource.ManagedObject) {
	ctx := process.Context
	errs := s.resources.Cleanup(ctx, objects)
	for _, err := range errs {
		s.metrics.Escalated(string(graph.FailureCleanup), "default")
		s.defaultHandler(ctx, cleanupFailure(process, nil, 0, err))
	}
	outcome := &execution.Outcome{
		ProcessID:     process.ID,
		State:         execution.StateCompleted,
		CleanupErrors: errs,
		TimeTaken:     clock.Since(process.CreatedAt),
	}
	process.Mutate(func() []func() {
		if process.Failed() {
			outcome.State = execution.StateFailed
			outcome.Err = process.Failure()
		}
		return nil
	})
	if err := s.recordDAO.Save(ctx, execution.NewRecord(process, outcome)); err != nil {
		s.logger.Warn("failed to save process record", "process_id", process.ID, "error", err)
	}
	if err := s.processDAO.Delete(ctx, process.ID); err != nil {
		s.logger.Warn("failed to remove process", "process_id", process.ID, "error", err)
	}
	s.metrics.ProcessFinished(string(outcome.State))
	if span := process.Span; span != nil {
		span.WithAttributes(map[string]string{"process.state": string(outcome.State)})
		span.SetStatus(outcome.Err)
		span.End()
	}
	s.logger.Info("process finished", "process_id", process.ID, "state", string(outcome.State), "took", outcome.TimeTaken)
	s.events.Publish(ctx, &event.Context{ProcessID: process.ID, EventType: event.ProcessFinished, TimeTakenMs: outcome.TimeTaken.Milliseconds()}, string(outcome.State))
	process.Finish(outcome)
}
