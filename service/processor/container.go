package processor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/viant/jobflow/internal/clock"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/progress"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/tracing"
)

type assignment struct {
	job *execution.Job
	run func(ctx context.Context)
}

func (a *assignment) ID() string { return a.job.ID() }

func (a *assignment) Run(ctx context.Context) { a.run(ctx) }

// start moves a job from created to loading resources.  Every required
// resource is bound to its scope; loads that are not settled yet register a
// notification and the job suspends until the last one fires.
func (s *Service) start(job *execution.Job) {
	process := job.Thread.Process
	process.Mutate(func() []func() {
		if job.State.IsFinal() {
			return nil
		}
		if process.Failed() {
			return s.finishJob(job, execution.JobStateTerminal)
		}
		job.State = execution.JobStateLoadingResources
		job.Started = clock.Now()
		process.Progress.Update(progress.Delta{Total: 1})
		var starts []func()
		for _, name := range job.Definition.Resources {
			definition := s.graph.Resource(name)
			object, err := s.scopeOf(job, definition.Scope).Object(definition)
			if err != nil {
				return append(starts, s.escalateLocked(job, graph.FailureResource, fmt.Errorf("resource %v: %w", name, err))...)
			}
			job.AddObject(object)
			ready, load := s.resources.EnsureReady(process.Context, object, s.notifier(job))
			if !ready {
				job.Pending++
			}
			if load != nil {
				starts = append(starts, load)
			}
		}
		if job.Pending == 0 {
			return []func(){func() { s.loaded(job) }}
		}
		process.Progress.Update(progress.Delta{Waiting: 1})
		s.logger.Debug("job waiting for resources", "process_id", process.ID, "thread_id", job.ThreadID(), "job", job.Name(), "pending", job.Pending)
		return starts
	})
}

// notifier resumes the job once its last pending resource settled.  It runs
// under the scope lock, which is the process lock.
func (s *Service) notifier(job *execution.Job) resource.Notify {
	return func() func() {
		job.Pending--
		if job.Pending > 0 {
			return nil
		}
		if job.State != execution.JobStateLoadingResources {
			return nil
		}
		job.Thread.Process.Progress.Update(progress.Delta{Waiting: -1})
		return func() { s.loaded(job) }
	}
}

func (s *Service) scopeOf(job *execution.Job, kind graph.Scope) *resource.Scope {
	switch kind {
	case graph.ScopeJob:
		return job.Scope
	case graph.ScopeThread:
		return job.Thread.Scope
	}
	return job.Thread.Process.Scope
}

// loaded runs once every required resource settled: failed loads escalate,
// otherwise the policy check and pre duties run before execution.
func (s *Service) loaded(job *execution.Job) {
	process := job.Thread.Process
	proceed := false
	process.Mutate(func() []func() {
		if job.State.IsFinal() {
			return nil
		}
		for _, object := range job.Objects {
			if _, err := object.Value(); err != nil {
				return s.escalateLocked(job, graph.FailureResource, err)
			}
		}
		var actions []func()
		proceed, actions = s.enter(job, execution.JobStateRunningPreDuties)
		return actions
	})
	if !proceed {
		return
	}
	ctx := execution.NewContext(process.Context, process, job)
	admission := policy.FromContext(process.Context)
	if admission == nil {
		admission = s.policy
	}
	if err := admission.Admit(ctx, job.Name(), job.Parameter()); err != nil {
		s.escalate(job, graph.FailureDuty, err)
		return
	}
	if err := s.runDuties(ctx, job, job.Definition.Pre); err != nil {
		s.escalate(job, graph.FailureDuty, err)
		return
	}
	process.Mutate(func() []func() {
		var actions []func()
		proceed, actions = s.enter(job, execution.JobStateExecuting)
		return actions
	})
	if proceed {
		s.execute(job)
	}
}

// execute hands the job to its team.  The job result arrives through the
// bound settle function, either when job logic returns or, for deferred jobs,
// when the completion is signalled.
func (s *Service) execute(job *execution.Job) {
	process := job.Thread.Process
	aTeam, ok := s.teams.Lookup(job.Definition.Team)
	if !ok {
		s.escalate(job, graph.FailureScheduling, fmt.Errorf("%w: %v", ErrUnknownTeam, job.Definition.Team))
		return
	}
	ctx, span := tracing.StartSpan(process.Context, "jobflow.job "+job.Name(), "INTERNAL")
	span.WithAttributes(map[string]string{
		"process.id": process.ID,
		"thread.id":  job.ThreadID(),
		"job.id":     job.ID(),
		"team":       aTeam.Name(),
	})
	jobCtx := execution.NewContext(ctx, process, job)
	started := clock.Now()
	process.Progress.Update(progress.Delta{Running: 1})
	job.Bind(func(output interface{}, err error) {
		process.Progress.Update(progress.Delta{Running: -1})
		s.metrics.JobExecuted(job.Name(), clock.Since(started), err)
		tracing.EndSpan(span, err)
		s.executed(jobCtx, job, err)
	})
	task := &assignment{job: job, run: func(ctx context.Context) {
		job.Returned(s.executor.Execute(ctx, job.Definition, job))
	}}
	if err := aTeam.Execute(jobCtx, task); err != nil {
		process.Progress.Update(progress.Delta{Running: -1})
		tracing.EndSpan(span, err)
		s.escalate(job, graph.FailureScheduling, err)
	}
}

func (s *Service) executed(ctx context.Context, job *execution.Job, err error) {
	if err != nil {
		s.escalate(job, graph.FailureExecution, err)
		return
	}
	process := job.Thread.Process
	proceed := false
	process.Mutate(func() []func() {
		var actions []func()
		proceed, actions = s.enter(job, execution.JobStateRunningPostDuties)
		return actions
	})
	if !proceed {
		return
	}
	if err = s.runDuties(ctx, job, job.Definition.Post); err != nil {
		s.escalate(job, graph.FailureDuty, err)
		return
	}
	s.complete(job)
}

// complete schedules the continuations of a finished job: explicit
// instigations in request order, then automatic flows, then the next job.
func (s *Service) complete(job *execution.Job) {
	process := job.Thread.Process
	process.Mutate(func() []func() {
		if job.State.IsFinal() {
			return nil
		}
		job.State = execution.JobStateCompleting
		thread := job.Thread
		instigations := job.Seal()
		process.Progress.Update(progress.Delta{Completed: 1})
		if job.Future != nil {
			job.Future.Resolve(nil)
		}
		if process.Failed() || thread.Interrupted {
			thread.Interrupted = false
			s.discardInstigations(instigations)
			return s.finishJob(job, execution.JobStateTerminal)
		}
		var actions []func()
		continued, spawned := false, job.Spawned > 0
		schedule := func(flow *graph.Flow, parameter interface{}, future *execution.Future) {
			followUp, isSpawn := s.instigate(job, flow, parameter, future)
			actions = append(actions, followUp...)
			spawned = spawned || isSpawn
			continued = continued || !isSpawn
		}
		for _, instigation := range instigations {
			schedule(instigation.Flow, instigation.Parameter, instigation.Future)
		}
		output := job.Output()
		for _, flow := range job.Definition.Flows {
			if flow.Auto {
				schedule(flow, output, nil)
			}
		}
		if next := job.Definition.Next; next != "" {
			thread.Enqueue(s.newJob(process, s.graph.Job(next), output, job.Depth))
			continued = true
		}
		state := execution.JobStateTerminal
		switch {
		case continued:
			state = execution.JobStateContinued
		case spawned:
			state = execution.JobStateSpawned
		}
		s.logger.Debug("job completed", "process_id", process.ID, "thread_id", thread.ID, "job", job.Name(), "state", state.String())
		actions = append(actions, s.publishJob(job, event.JobCompleted, state.String()))
		return append(actions, s.finishJob(job, state)...)
	})
}

// instigate creates the job of flow: sequential flows append it to the
// instigating thread, parallel and asynchronous flows start a new thread.
// Caller holds the process lock.
func (s *Service) instigate(job *execution.Job, flow *graph.Flow, parameter interface{}, future *execution.Future) ([]func(), bool) {
	process := job.Thread.Process
	child := s.newJob(process, s.graph.Job(flow.Job), parameter, job.Depth)
	if !flow.Spawns() {
		child.Future = future
		job.Thread.Enqueue(child)
		return nil, false
	}
	thread := s.newThread(process, job.Thread, flow.Strategy == graph.StrategyParallel, flow.Escalations)
	if future != nil {
		thread.Future = future
	}
	thread.Enqueue(child)
	return s.advance(thread), true
}

// enter moves the job to state unless it already finished or the process
// failed, in which case the job is dropped.  Caller holds the process lock.
func (s *Service) enter(job *execution.Job, state execution.JobState) (bool, []func()) {
	if job.State.IsFinal() {
		return false, nil
	}
	if job.Thread.Process.Failed() {
		return false, s.finishJob(job, execution.JobStateTerminal)
	}
	job.State = state
	return true, nil
}

// finishJob closes the job scope.  The thread only advances after the job
// scope resources were cleaned up.  Caller holds the process lock.
func (s *Service) finishJob(job *execution.Job, state execution.JobState) []func() {
	job.State = state
	objects, _ := job.Scope.Release()
	return []func(){func() { s.cleanupJob(job, objects) }}
}

func (s *Service) cleanupJob(job *execution.Job, objects []*resource.ManagedObject) {
	process := job.Thread.Process
	errs := s.resources.Cleanup(process.Context, objects)
	process.Mutate(func() []func() {
		thread := job.Thread
		if thread.Active == job {
			thread.Active = nil
		}
		var actions []func()
		for _, err := range errs {
			actions = append(actions, s.escalateCleanup(process, thread, job.Definition.Escalations, job.Depth, err)...)
		}
		return append(actions, s.advance(thread)...)
	})
}

func (s *Service) runDuties(ctx context.Context, job *execution.Job, duties []*graph.Duty) error {
	for _, duty := range duties {
		if err := s.runDuty(ctx, job, duty); err != nil {
			return fmt.Errorf("duty %v: %w", duty.Name, err)
		}
	}
	return nil
}

func (s *Service) runDuty(ctx context.Context, job *execution.Job, duty *graph.Duty) (err error) {
	switch duty.Kind {
	case graph.DutyPolicy:
		return duty.Policy.Admit(ctx, job.Name(), job.Parameter())
	case graph.DutyLog:
		s.logger.InfoContext(ctx, "job duty", "duty", duty.Name, "process_id", job.ProcessID(), "thread_id", job.ThreadID(), "job", job.Name())
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return duty.Run(ctx, job)
}

// publishJob returns an action publishing a job event once the process lock
// is released
func (s *Service) publishJob(job *execution.Job, eventType event.Type, data interface{}) func() {
	eventContext := &event.Context{
		ProcessID:   job.ProcessID(),
		ThreadID:    job.ThreadID(),
		JobID:       job.ID(),
		Job:         job.Name(),
		EventType:   eventType,
		TimeTakenMs: clock.Since(job.Started).Milliseconds(),
	}
	ctx := job.Thread.Process.Context
	return func() { s.events.Publish(ctx, eventContext, data) }
}
