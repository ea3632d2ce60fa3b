// Package events emits the machine-readable capture outcomes spec §6/§7
// require on stdout, and human-readable messages on stderr, following the
// dual-writer shape of gitbak's internal/logger but structured as one
// JSON event per tick/capture rather than a free-form debug log file.
package events
