// Package supervisor implements the single-daemon, multi-repo control loop
// (spec §4.5): on a fixed cadence it reloads the configuration document,
// iterates the watched repositories in deterministic order, invokes the
// capture engine per repository, and isolates per-repo failures from the
// rest of the tick.
//
// It also runs the optional filesystem-event accelerator described in
// spec §9: an fsnotify watcher per repo that marks a changed repo as due on
// the next tick even if its polling_seconds window has not elapsed. Repos
// are still visited in sorted order, and the tick cadence is unchanged.
// Correctness
// never depends on it; a watcher that fails to start just leaves that repo
// on plain polling.
package supervisor
