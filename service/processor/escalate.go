package processor

import (
	"fmt"

	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/progress"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
)

func (s *Service) escalate(job *execution.Job, kind graph.FailureKind, err error) {
	job.Thread.Process.Mutate(func() []func() {
		return s.escalateLocked(job, kind, err)
	})
}

// escalateLocked routes a job failure.  A resolved handler becomes a new job
// at the head of the failing thread, whose queued flow is discarded; an
// unresolved failure fails the process.  Caller holds the process lock.
func (s *Service) escalateLocked(job *execution.Job, kind graph.FailureKind, err error) []func() {
	if job.State.IsFinal() {
		return nil
	}
	thread := job.Thread
	process := thread.Process
	job.State = execution.JobStateEscalated
	thread.Interrupted = false
	s.discardInstigations(job.Seal())
	failure := &escalation.Failure{
		Kind:      kind,
		Job:       job.Name(),
		JobID:     job.ID(),
		ProcessID: process.ID,
		ThreadID:  thread.ID,
		Depth:     job.Depth,
		Err:       err,
	}
	thread.SetErr(failure)
	if job.Future != nil {
		job.Future.Resolve(failure)
	}
	process.Progress.Update(progress.Delta{Failed: 1, Escalations: 1})
	process.Span.AddEvent("escalation", map[string]string{"job": job.Name(), "kind": string(kind)})

	actions := []func(){s.publishJob(job, event.JobEscalated, failure)}
	if process.Failed() {
		s.logger.Warn("job failed after process failure", "process_id", process.ID, "thread_id", thread.ID, "job", job.Name(), "error", err)
		return append(actions, s.finishJob(job, execution.JobStateEscalated)...)
	}
	resolution := s.resolve(process, thread, job.Definition.Escalations, failure)
	if resolution.IsDefault() {
		actions = append(actions, s.fail(process, failure)...)
	} else {
		s.inject(process, thread, resolution, failure)
	}
	return append(actions, s.finishJob(job, execution.JobStateEscalated)...)
}

// escalateCleanup routes a job or thread scope cleanup failure.  The handler
// runs on a new asynchronous thread so the thread that owned the scope can
// carry on; the new thread is live before the owner retires.  Caller holds
// the process lock.
func (s *Service) escalateCleanup(process *execution.Process, thread *execution.Thread, table graph.Escalations, depth int, err error) []func() {
	failure := cleanupFailure(process, thread, depth, err)
	process.Progress.Update(progress.Delta{Escalations: 1})
	if process.Failed() {
		s.metrics.Escalated(string(failure.Kind), string(escalation.LevelDefault))
		return []func(){func() { s.defaultHandler(process.Context, failure) }}
	}
	resolution := s.resolve(process, thread, table, failure)
	if resolution.IsDefault() {
		return s.fail(process, failure)
	}
	handlerThread := s.newThread(process, thread, false, nil)
	handlerThread.Depth = depth + 1
	handlerThread.Enqueue(s.newJob(process, s.graph.Job(resolution.Handler), failure, depth+1))
	s.logger.Warn("cleanup escalated", "process_id", process.ID, "thread_id", thread.ID, "level", string(resolution.Level), "handler", resolution.Handler, "error", err)
	return s.advance(handlerThread)
}

// interrupt routes a synthetic failure injected into thread.  Caller holds
// the process lock.
func (s *Service) interrupt(process *execution.Process, thread *execution.Thread, failure *escalation.Failure) []func() {
	process.Progress.Update(progress.Delta{Escalations: 1})
	process.Span.AddEvent("interrupt", map[string]string{"thread": thread.ID})
	resolution := s.resolve(process, thread, nil, failure)
	if resolution.IsDefault() {
		return s.fail(process, failure)
	}
	s.inject(process, thread, resolution, failure)
	actions := s.release(thread, failure)
	if thread.Active != nil && len(actions) == 0 {
		thread.Interrupted = true
	}
	return append(actions, s.advance(thread)...)
}

// release finishes the active job of thread when it is suspended on resource
// loads or on a deferred completion, so an injected failure retires the
// thread.  Jobs running logic or duties are left to settle on their own; a
// late completion or load is ignored.  Caller holds the process lock.
func (s *Service) release(thread *execution.Thread, failure *escalation.Failure) []func() {
	job := thread.Active
	if job == nil || job.State.IsFinal() {
		return nil
	}
	process := thread.Process
	var actions []func()
	switch {
	case job.State == execution.JobStateLoadingResources && job.Pending > 0:
		process.Progress.Update(progress.Delta{Waiting: -1})
	case job.State == execution.JobStateExecuting && job.Deferred():
		actions = append(actions, func() { job.Settle(nil, failure) })
	default:
		return nil
	}
	job.State = execution.JobStateEscalated
	s.discardInstigations(job.Seal())
	thread.SetErr(failure)
	if job.Future != nil {
		job.Future.Resolve(failure)
	}
	s.logger.Warn("suspended job released", "process_id", process.ID, "thread_id", thread.ID, "job", job.Name(), "kind", string(failure.Kind))
	actions = append(actions, s.publishJob(job, event.JobEscalated, failure))
	return append(actions, s.finishJob(job, execution.JobStateEscalated)...)
}

// inject clears the flow of thread and queues the handler job at its head.
// Caller holds the process lock.
func (s *Service) inject(process *execution.Process, thread *execution.Thread, resolution escalation.Resolution, failure *escalation.Failure) {
	handler := s.newJob(process, s.graph.Job(resolution.Handler), failure, failure.Depth+1)
	s.discardJobs(thread.Clear())
	thread.Push(handler)
	s.logger.Warn("job escalated",
		"process_id", process.ID,
		"thread_id", thread.ID,
		"job", failure.Job,
		"kind", string(failure.Kind),
		"level", string(resolution.Level),
		"handler", resolution.Handler,
		"error", failure.Err)
}

// resolve walks job, thread chain and process tables.  Failures at or past
// the depth bound resolve to the default handler.
func (s *Service) resolve(process *execution.Process, thread *execution.Thread, table graph.Escalations, failure *escalation.Failure) escalation.Resolution {
	resolution := escalation.Resolution{Level: escalation.LevelDefault}
	if failure.Depth < s.config.MaxEscalationDepth {
		chain := []escalation.Scoped{{Level: escalation.LevelJob, Table: table}}
		for _, scoped := range thread.Chain() {
			chain = append(chain, escalation.Scoped{Level: escalation.LevelThread, Table: scoped.Escalations})
		}
		chain = append(chain, escalation.Scoped{Level: escalation.LevelProcess, Table: process.Escalations})
		resolution = escalation.Resolve(failure, chain...)
	}
	s.metrics.Escalated(string(failure.Kind), string(resolution.Level))
	return resolution
}

// fail is the fixed default handler: the process is marked failed, every
// queued job is dropped and suspended jobs are released so threads drain and
// release their scopes.  Caller
// holds the process lock.
func (s *Service) fail(process *execution.Process, failure *escalation.Failure) []func() {
	if !process.MarkFailed(failure) {
		return nil
	}
	var actions []func()
	for _, thread := range process.Threads() {
		thread.Interrupted = false
		s.discardJobs(thread.Clear())
		actions = append(actions, s.release(thread, failure)...)
	}
	process.Span.AddEvent("failed", map[string]string{"kind": string(failure.Kind)})
	return append(actions, func() { s.defaultHandler(process.Context, failure) })
}

func (s *Service) discardJobs(jobs []*execution.Job) {
	for _, job := range jobs {
		job.State = execution.JobStateTerminal
		job.Scope.Release()
		if job.Future != nil {
			job.Future.Resolve(fmt.Errorf("%w: %v", execution.ErrDiscarded, job.Name()))
		}
	}
}

func (s *Service) discardInstigations(instigations []*execution.Instigation) {
	for _, instigation := range instigations {
		instigation.Future.Resolve(fmt.Errorf("%w: %v", execution.ErrDiscarded, instigation.Flow.Name))
	}
}

func cleanupFailure(process *execution.Process, thread *execution.Thread, depth int, err error) *escalation.Failure {
	ret := &escalation.Failure{Kind: graph.FailureCleanup, ProcessID: process.ID, Depth: depth, Err: err}
	if thread != nil {
		ret.ThreadID = thread.ID
	}
	return ret
}
