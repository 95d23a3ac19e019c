// Package components holds the components the switchboard binary runs: two
// background services that scan source trees, and the Reporter that drives
// them as the main component.
//
// The services never block the Environment. A request starts a job on its own
// goroutine; each async-check answers NotReady until the job is finished and
// then sends the result to whoever asked for it.
package components
