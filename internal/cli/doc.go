// Package cli implements the dura command-line surface (spec §6): verb
// dispatch, flag parsing, and the `dura-<name>` passthrough exec fallback.
// Parsing mechanics come from cobra; everything each verb actually does is
// delegated to internal/dconfig, internal/daemon, internal/vcs, and
// internal/supervisor, matching gitbak's separation between flag handling
// (internal/config) and behavior (cmd/gitbak's App).
package cli
