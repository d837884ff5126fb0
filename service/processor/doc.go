// Package processor runs processes: it drives every job through its container
// state machine, advances thread flows, spawns and joins threads, routes
// failures through the escalation chain and cleans resource scopes up.
package processor
