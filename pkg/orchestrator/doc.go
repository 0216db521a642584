// Package orchestrator drives the lifecycle of the single observable research request.
//
// A submission moves the state through validating and in-flight to a terminal
// succeeded or failed state. Each submission takes a new ticket; a generator
// result is applied only if its ticket is still current, so a newer submission
// silently orphans any request that is still running. Orphaned calls are never
// aborted, their results are dropped on arrival.
package orchestrator
