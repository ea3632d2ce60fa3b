// Package daemon enforces the at-most-one-running-daemon invariant (spec
// §4.6) and the cooperative shutdown signal any process on the host can
// raise for the running daemon to observe.
//
// The liveness check generalizes gitbak's internal/lock flock-based
// approach from a per-repository exclusive lock to a per-user pid-in-config
// check, since dura's singleton is daemon-wide rather than repository-wide.
package daemon
