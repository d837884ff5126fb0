// Package jobflow provides an embeddable job graph execution engine.
//
// A graph declares jobs, the resources they need, the flows connecting them
// and the escalation tables handling their failures.  The engine is made of
// pluggable service layers:
//
//   - processor  – job containers, threads and process lifecycle
//   - resource   – loading, coalescing, sharing and cleanup of resources
//   - team       – passive, pooled and elastic job scheduling
//   - escalation – failure resolution across job, thread and process tables
//
// End-users typically interact with the engine via the Service façade
// exposed by the root package:
//
//	srv, _ := jobflow.New(ctx, jobflow.WithConfig(cfg))
//	_ = srv.Start(ctx)
//	engine, _ := srv.Engine(aGraph)
//	process, _ := engine.Invoke(ctx, "extract", input)
//	outcome, _ := process.Wait(ctx)
package jobflow
